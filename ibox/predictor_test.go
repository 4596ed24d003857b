/*
 * axp264ibox - Tournament branch predictor test cases.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package ibox

import "testing"

// A branch retrained "taken" many times in a row must eventually be
// predicted taken, and its local/global saturating counters must stay
// within their documented bounds throughout.
func TestPredictorRetrainConvergesOnRepeatedTaken(t *testing.T) {
	p := NewPredictor()
	vpc := NewVPC(0x20000, false)

	convergedAt := -1
	for i := 0; i < 1000; i++ {
		pred := p.Predict(vpc)
		p.Train(vpc, true, pred.LocalTaken, pred.GlobalTaken)
		if pred.Taken && convergedAt == -1 {
			convergedAt = i
		}
	}
	if convergedAt == -1 {
		t.Fatal("predictor never converged to taken after 1000 consecutive taken branches")
	}

	lclHistIdx := vpcLocalIndex(vpc)
	lclPredIdx := int(p.localHistory[lclHistIdx]) & (localPredSize - 1)
	if c := p.localPred[lclPredIdx]; c > local3BitMax {
		t.Errorf("local counter = %d, want <= %d", c, local3BitMax)
	}
	if c := p.globalPred[p.globalPath]; c > twoBitMax {
		t.Errorf("global counter = %d, want <= %d", c, twoBitMax)
	}
	if c := p.choicePred[p.globalPath]; c > twoBitMax {
		t.Errorf("choice counter = %d, want <= %d", c, twoBitMax)
	}
}

// A branch retrained "not taken" many times in a row must converge the
// same way in the opposite direction, and never underflow its counters.
func TestPredictorRetrainConvergesOnRepeatedNotTaken(t *testing.T) {
	p := NewPredictor()
	vpc := NewVPC(0x30000, false)

	// Bias it taken first, so the not-taken run has to walk the counter
	// back down through the middle of its range.
	for i := 0; i < 16; i++ {
		pred := p.Predict(vpc)
		p.Train(vpc, true, pred.LocalTaken, pred.GlobalTaken)
	}

	convergedAt := -1
	for i := 0; i < 1000; i++ {
		pred := p.Predict(vpc)
		p.Train(vpc, false, pred.LocalTaken, pred.GlobalTaken)
		if !pred.Taken && convergedAt == -1 {
			convergedAt = i
		}
	}
	if convergedAt == -1 {
		t.Fatal("predictor never converged to not-taken after 1000 consecutive not-taken branches")
	}
}

// A predictor trained on a strongly repetitive trace (the common case
// real branch predictors are built for) should score well above chance
// once warmed up.
func TestPredictorTournamentAccuracyOnRepetitiveTrace(t *testing.T) {
	p := NewPredictor()

	var entries []TraceEntry
	addrs := []uint64{0x1000, 0x2000, 0x3000, 0x4000}
	for i := 0; i < 50000; i++ {
		addr := addrs[i%len(addrs)]
		taken := (i/7)%3 != 0 // repeating but not trivially alternating pattern.
		entries = append(entries, TraceEntry{VPC: addr, Taken: taken})
	}

	result := ReplayTrace(p, entries)
	if result.Instructions != len(entries) {
		t.Fatalf("Instructions = %d, want %d", result.Instructions, len(entries))
	}
	if acc := result.Accuracy(); acc < 0.95 {
		t.Errorf("Accuracy = %f, want >= 0.95 on a repetitive trace", acc)
	}
}

// Saturating counters must never leave their documented ranges
// regardless of how long a uniform run continues.
func TestSaturatingCounterBounds(t *testing.T) {
	var c3 uint8
	for i := 0; i < 100; i++ {
		incr3(&c3)
	}
	if c3 != local3BitMax {
		t.Errorf("incr3 saturated at %d, want %d", c3, local3BitMax)
	}
	for i := 0; i < 100; i++ {
		decr3(&c3)
	}
	if c3 != local3BitMin {
		t.Errorf("decr3 floored at %d, want %d", c3, local3BitMin)
	}

	var c2 uint8
	for i := 0; i < 100; i++ {
		incr2(&c2)
	}
	if c2 != twoBitMax {
		t.Errorf("incr2 saturated at %d, want %d", c2, twoBitMax)
	}
	for i := 0; i < 100; i++ {
		decr2(&c2)
	}
	if c2 != twoBitMin {
		t.Errorf("decr2 floored at %d, want %d", c2, twoBitMin)
	}
}
