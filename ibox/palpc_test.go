/*
 * axp264ibox - PAL PC composition test cases.
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

func TestPALPCRoundTripEV6(t *testing.T) {
	highPC := uint64(0x1234567890ab) & ((1 << 49) - 1)
	for _, fn := range []uint32{0x00, 0x04, 0x08, 0x15, 0x80, 0xbf} {
		pc := PALPCBits(EV6, highPC, fn)
		if !pc.Pal() {
			t.Fatalf("function %#x: palMode bit not set", fn)
		}
		gotHigh, gotFn := DecomposePALPC(EV6, pc)
		if gotHigh != highPC {
			t.Errorf("function %#x: highPC = %#x, want %#x", fn, gotHigh, highPC)
		}
		if gotFn != fn {
			t.Errorf("function %#x: function = %#x, want %#x", fn, gotFn, fn)
		}
	}
}

func TestPALPCRoundTrip21164(t *testing.T) {
	highPC := uint64(0xdeadbeefcafe) & ((1 << 50) - 1)
	for _, fn := range []uint32{0x00, 0x06, 0x11, 0xbf} {
		pc := PALPCBits(EV56MajorType, highPC, fn)
		gotHigh, gotFn := DecomposePALPC(EV56MajorType, pc)
		if gotHigh != highPC {
			t.Errorf("function %#x: highPC = %#x, want %#x", fn, gotHigh, highPC)
		}
		if gotFn != fn {
			t.Errorf("function %#x: function = %#x, want %#x", fn, gotFn, fn)
		}
	}
}

func TestExcPCForUsesPalBaseNotFaultingPC(t *testing.T) {
	// excPCFor takes no faulting address at all: the same PAL_BASE and
	// fault must always produce the same excPC, a different PAL_BASE
	// must move it, and its highPC must be PAL_BASE's own.
	palBase := uint64(0x10000) << 15 // an EV6 PAL_BASE with highPC = 0x10000.

	a := excPCFor(EV6, palBase, ExcITBMiss)
	b := excPCFor(EV6, palBase, ExcITBMiss)
	if a != b {
		t.Fatalf("excPCFor not deterministic in palBase/fault alone: %#x != %#x", a, b)
	}

	otherBase := uint64(0x20000) << 15
	c := excPCFor(EV6, otherBase, ExcITBMiss)
	if a == c {
		t.Fatalf("excPCFor did not vary with PAL_BASE: got %#x for both", a)
	}

	highPC, fn := DecomposePALPC(EV6, a)
	if highPC != 0x10000 {
		t.Errorf("highPC = %#x, want %#x", highPC, 0x10000)
	}
	if fn != palFunctionFor(ExcITBMiss) {
		t.Errorf("function = %#x, want %#x", fn, palFunctionFor(ExcITBMiss))
	}
}
