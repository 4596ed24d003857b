/*
 * axp264ibox - Register renaming test cases.
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

// PAL-shadow substitution must apply to integer registers {8-14,25}
// while in PAL mode, and must never apply to floating point registers.
func TestDecodePALShadowSubstitution(t *testing.T) {
	// ADDQ R8, R9, R10 (opcode 0x10, function 0x20) decoded while
	// running in PAL mode must rename R8/R10 onto their shadow slots.
	raw := uint32(0x10<<26) | (8 << 21) | (9 << 16) | (0x20 << 5) | 10
	vpc := NewVPC(0x4000, true) // PAL mode.

	d := Decode(1, vpc, raw, false)
	if !isPalShadowReg(8) || !isPalShadowReg(14) || !isPalShadowReg(25) {
		t.Fatal("expected registers 8, 14, and 25 to be PAL-shadow registers")
	}
	if idx, ok := palShadowIndex[8]; !ok || d.ASrc1 != idx {
		t.Errorf("ASrc1 = %d, want shadow slot %d", d.ASrc1, idx)
	}
	if idx, ok := palShadowIndex[10]; !ok || d.ADest != idx {
		t.Errorf("ADest = %d, want shadow slot %d", d.ADest, idx)
	}
	if d.DestFloat || d.Src1Float {
		t.Fatal("ADDQ operands must not be floating point")
	}
}

func isPalShadowReg(reg uint8) bool {
	_, ok := palShadowIndex[reg]
	return ok
}

// Outside PAL mode, the same instruction must address the plain
// architectural registers untouched.
func TestDecodeNoPALShadowOutsidePALMode(t *testing.T) {
	raw := uint32(0x10<<26) | (8 << 21) | (9 << 16) | (0x20 << 5) | 10
	vpc := NewVPC(0x4000, false)

	d := Decode(1, vpc, raw, false)
	if d.ASrc1 != 8 || d.ASrc2 != 9 || d.ADest != 10 {
		t.Errorf("ASrc1/ASrc2/ADest = %d/%d/%d, want 8/9/10 outside PAL mode", d.ASrc1, d.ASrc2, d.ADest)
	}
}

// Floating point operations must never be shadow-substituted, even
// when one of their register numbers collides with the integer
// shadow set and the instruction runs in PAL mode.
func TestDecodeFloatRegistersNeverShadowed(t *testing.T) {
	// ADDT Fa, Fb, Fc (opcode 0x16) with Fa/Fb/Fc = 8/9/10.
	raw := uint32(0x16<<26) | (8 << 21) | (9 << 16) | (0x020 << 5) | 10
	vpc := NewVPC(0x4000, true)

	d := Decode(1, vpc, raw, false)
	if !d.Src1Float || !d.DestFloat {
		t.Fatal("ADDT operands must be floating point")
	}
	if d.ASrc1 != 8 || d.ADest != 10 {
		t.Errorf("ASrc1/ADest = %d/%d, want 8/10 unshadowed for floating point", d.ASrc1, d.ADest)
	}
}

// Renaming and then retiring a dependent chain of instructions must
// leave the free-list exactly as populated as it started: every
// physical register handed out by Rename is either still live in the
// map or has been returned to the free-list by the matching Retire.
func TestRenameRetireFreeListConservation(t *testing.T) {
	rf := NewRegisterFile(48, 40) // tight physical budgets to make leaks visible quickly.
	freeBefore := rf.Int.freeList.flCount()

	var insts []*DecodedInstruction
	for i := 0; i < 3; i++ {
		d := &DecodedInstruction{ASrc1: 1, ASrc2: 2, ADest: 1}
		rf.Rename(d)
		insts = append(insts, d)
	}

	for _, d := range insts {
		rf.Retire(d)
	}

	freeAfter := rf.Int.freeList.flCount()
	if freeAfter != freeBefore {
		t.Errorf("free-list count = %d after rename/retire chain, want %d (started with)", freeAfter, freeBefore)
	}
}

// Rollback after a flush must restore the pre-rename mapping and
// return the newly allocated physical register to the free-list,
// exactly undoing a single Rename call.
func TestRenameRollbackRestoresPriorMapping(t *testing.T) {
	rf := NewRegisterFile(48, 40)
	before := rf.Int.Current(3)
	freeBefore := rf.Int.freeList.flCount()

	d := &DecodedInstruction{ADest: 3}
	rf.Rename(d)
	if rf.Int.Current(3) == before {
		t.Fatal("Rename did not allocate a new mapping")
	}

	rf.Rollback(d)
	if got := rf.Int.Current(3); got != before {
		t.Errorf("Current(3) after rollback = %d, want %d", got, before)
	}
	if got := rf.Int.freeList.flCount(); got != freeBefore {
		t.Errorf("free-list count after rollback = %d, want %d", got, freeBefore)
	}
}

// Writes to R31 (AXPUnmappedReg) must never allocate a rename and
// must leave the free-list untouched.
func TestRenameUnmappedRegIsNoop(t *testing.T) {
	rf := NewRegisterFile(48, 40)
	freeBefore := rf.Int.freeList.flCount()

	d := &DecodedInstruction{ADest: AXPUnmappedReg}
	rf.Rename(d)
	if d.Dest != AXPUnmappedReg {
		t.Errorf("Dest = %d, want AXPUnmappedReg for a R31 destination", d.Dest)
	}
	if got := rf.Int.freeList.flCount(); got != freeBefore {
		t.Errorf("free-list count = %d, want unchanged %d", got, freeBefore)
	}

	rf.Retire(d)
	rf.Rollback(d)
}
