/*
 * axp264ibox - Event/exception intake test cases.
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

// Only the first fault recorded since the last Clear is kept; a
// second Raise before Clear must be swallowed entirely, leaving the
// original event (and its excPC) untouched.
func TestEventRaiseSwallowsSecondFaultBeforeClear(t *testing.T) {
	e := &EventState{}
	palBase := uint64(0x10000) << 15

	e.Raise(EV6, palBase, ExcArith, 0, 0, 7, false)
	first, ok := e.Pending()
	if !ok {
		t.Fatal("first Raise did not record a pending event")
	}
	if first.Fault != ExcArith {
		t.Fatalf("Fault = %v, want ExcArith", first.Fault)
	}

	// A later, unrelated fault (different VA, register, and fault
	// code) arrives before the first is cleared: it must be dropped.
	e.Raise(EV6, palBase, ExcDTBMSingle, 0xdead0000, 0x2b, 3, true)

	second, ok := e.Pending()
	if !ok {
		t.Fatal("pending event vanished after the swallowed Raise")
	}
	if second != first {
		t.Errorf("pending event changed after a swallowed Raise: got %+v, want %+v", second, first)
	}
	if second.Fault == ExcDTBMSingle {
		t.Error("second Raise was not swallowed: ExcDTBMSingle overwrote the pending ExcArith")
	}
}

// Once Clear runs, intake re-arms: the next Raise is recorded, not
// swallowed.
func TestEventRaiseAfterClearRecordsNewFault(t *testing.T) {
	e := &EventState{}
	palBase := uint64(0x10000) << 15

	e.Raise(EV6, palBase, ExcArith, 0, 0, 7, false)
	e.Clear()
	if _, ok := e.Pending(); ok {
		t.Fatal("Clear did not discard the pending event")
	}

	e.Raise(EV6, palBase, ExcDTBMSingle, 0xdead0000, 0x2b, 3, true)
	ev, ok := e.Pending()
	if !ok {
		t.Fatal("Raise after Clear did not record a new event")
	}
	if ev.Fault != ExcDTBMSingle {
		t.Errorf("Fault = %v, want ExcDTBMSingle", ev.Fault)
	}
	if ev.VA != 0xdead0000 {
		t.Errorf("VA = %#x, want %#x", ev.VA, 0xdead0000)
	}
}
