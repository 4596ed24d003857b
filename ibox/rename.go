/*
 * axp264ibox - Register renaming.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_RenameRegisters in
 * original_source/src/cpu/AXP_21264_Ibox.c: architectural->physical
 * maps with prevPr bookkeeping, and ring-buffer free-lists.
 */

package ibox

// intArchSlots is the integer rename map's index space: the 32
// architectural registers plus the 8 PAL-shadow aliases substituted
// for {R8-R14, R25} while running PALcode (spec.md §3). Indices 32-39
// are the compact shadow slots; see decode.go's palShadowIndex.
const intArchSlots = 40

// regMapEntry is one architectural register's current physical
// mapping (spec.md §3 "register map entry"). The physical register a
// rename displaces is not tracked here: it travels with the
// instruction itself (DecodedInstruction.PrevDestPr) so that Retire
// and Rollback release exactly the register their own rename
// displaced, even when several in-flight instructions target the same
// architectural register.
type regMapEntry struct {
	pr int
}

// FreeList is a ring-buffer free-list of physical register numbers,
// matching prFreeList/pfFreeList's start/end index pair.
type FreeList struct {
	regs       []int
	start, end int
}

// NewFreeList seeds a free-list with physical registers
// [firstPhys, firstPhys+count).
func NewFreeList(firstPhys, count, capacity int) *FreeList {
	fl := &FreeList{regs: make([]int, capacity)}
	for i := 0; i < count; i++ {
		fl.regs[i] = firstPhys + i
	}
	fl.end = count % capacity
	return fl
}

// Pop removes and returns the next free physical register.
func (fl *FreeList) Pop() int {
	r := fl.regs[fl.start]
	fl.start = (fl.start + 1) % len(fl.regs)
	return r
}

// flCount returns the number of registers currently on the free-list.
// Safe against the start==end ambiguity a ring buffer normally has
// because a RenameMap's free-list can never hold every physical
// register at once (the architecturally-mapped ones always occupy at
// least slots of them).
func (fl *FreeList) flCount() int {
	return (fl.end - fl.start + len(fl.regs)) % len(fl.regs)
}

// Push returns a physical register to the free-list, to be reissued
// once the instruction that displaced it retires.
func (fl *FreeList) Push(pr int) {
	fl.regs[fl.end] = pr
	fl.end = (fl.end + 1) % len(fl.regs)
}

// RenameMap holds the architectural register file's current/previous
// physical mappings and the free-list backing new allocations. One
// instance exists for the integer file and one for the floating file.
// entries/state are sized to slots, not a fixed 32: the integer file
// needs room for the 8 PAL-shadow aliases above the 32 architectural
// registers (spec.md §3's "32 architectural + 8 PAL-shadow").
type RenameMap struct {
	entries  []regMapEntry
	state    []PhysRegState
	freeList *FreeList
}

// NewRenameMap builds an identity-mapped rename map over slots
// architectural-register indices (including any PAL-shadow aliases):
// index N starts out mapped to physical register N, with the
// remaining physical registers seeded onto the free-list.
func NewRenameMap(slots, physical int) *RenameMap {
	rm := &RenameMap{entries: make([]regMapEntry, slots), state: make([]PhysRegState, slots)}
	for i := 0; i < slots; i++ {
		rm.entries[i] = regMapEntry{pr: i}
		rm.state[i] = RegValid
	}
	rm.freeList = NewFreeList(slots, physical-slots, physical)
	return rm
}

// Current returns the physical register currently mapped to an
// architectural register.
func (rm *RenameMap) Current(areg uint8) int {
	return rm.entries[areg].pr
}

// State returns the lifecycle state of the physical register
// currently mapped to areg.
func (rm *RenameMap) State(areg uint8) PhysRegState {
	return rm.state[areg]
}

// SetState updates the lifecycle state of areg's current mapping;
// used by the execution-box stubs when a result becomes Valid. Rename,
// Retire and Rollback set the state directly.
func (rm *RenameMap) SetState(areg uint8, s PhysRegState) {
	rm.state[areg] = s
}

// Rename allocates a fresh physical register for areg's new mapping.
// The physical register this displaces is not freed yet: it stays
// live until the instruction doing this rename either retires
// (Retire, releasing it for reuse) or is flushed (Rollback, undoing
// the rename instead). It returns the newly-assigned physical
// register and the one it displaced (AXPUnmappedReg if none).
func (rm *RenameMap) Rename(areg uint8) (newPr, displacedPr int) {
	if areg == AXPUnmappedReg {
		return AXPUnmappedReg, AXPUnmappedReg
	}

	newPr = rm.freeList.Pop()
	entry := &rm.entries[areg]
	displacedPr = entry.pr
	entry.pr = newPr
	rm.state[areg] = RegPending
	return newPr, displacedPr
}

// Retire confirms areg's mapping to pr as permanent and releases the
// physical register this rename displaced (displacedPr) back onto the
// free-list: nothing older can reference it any more, since in-order
// retirement guarantees every earlier instruction already committed.
func (rm *RenameMap) Retire(areg uint8, displacedPr int) {
	if areg == AXPUnmappedReg {
		return
	}
	if displacedPr != AXPUnmappedReg {
		rm.freeList.Push(displacedPr)
	}
	rm.state[areg] = RegValid
}

// Rollback undoes a single rename: areg's mapping reverts to
// displacedPr, and the physical register handed out by that rename
// (pr) is pushed back onto the free-list. Used when flushing
// instructions after a mispredict or exception, walking previousPr
// from the youngest flushed instruction back to the oldest (spec.md
// §9's resolution of the rollback Open Question).
func (rm *RenameMap) Rollback(areg uint8, pr, displacedPr int) {
	if areg == AXPUnmappedReg {
		return
	}
	rm.freeList.Push(pr)
	entry := &rm.entries[areg]
	entry.pr = displacedPr
	rm.state[areg] = RegValid
}

// RegisterFile is the pair of integer/floating rename maps an Ibox
// owns, plus the Rename step of decode/rename (spec.md §4.D step 5;
// PAL-shadow substitution already happened in Decode).
type RegisterFile struct {
	Int   *RenameMap
	Float *RenameMap
}

// NewRegisterFile builds the integer and floating register files with
// the given physical register counts. The integer map carries
// intArchSlots slots (32 architectural + 8 PAL-shadow aliases,
// spec.md §3); floating point has no shadow set, so 32 suffices.
func NewRegisterFile(intPhysical, floatPhysical int) *RegisterFile {
	return &RegisterFile{
		Int:   NewRenameMap(intArchSlots, intPhysical),
		Float: NewRenameMap(32, floatPhysical),
	}
}

// Rename fills in a decoded instruction's physical source/destination
// registers, allocating a new destination mapping when one is needed.
func (r *RegisterFile) Rename(d *DecodedInstruction) {
	if d.Src1Float {
		d.Src1 = r.Float.Current(d.ASrc1)
	} else {
		d.Src1 = r.Int.Current(d.ASrc1)
	}
	if d.Src2Float {
		d.Src2 = r.Float.Current(d.ASrc2)
	} else {
		d.Src2 = r.Int.Current(d.ASrc2)
	}

	if d.ADest == AXPUnmappedReg {
		d.Dest = AXPUnmappedReg
		d.PrevDestPr = AXPUnmappedReg
		return
	}

	var newPr, displaced int
	if d.DestFloat {
		newPr, displaced = r.Float.Rename(d.ADest)
	} else {
		newPr, displaced = r.Int.Rename(d.ADest)
	}
	d.Dest = newPr
	d.PrevDestPr = displaced
}

// Retire commits a decoded instruction's destination mapping and
// returns the physical register it displaced to the free-list.
func (r *RegisterFile) Retire(d *DecodedInstruction) {
	if d.ADest == AXPUnmappedReg {
		return
	}
	if d.DestFloat {
		r.Float.Retire(d.ADest, d.PrevDestPr)
	} else {
		r.Int.Retire(d.ADest, d.PrevDestPr)
	}
}

// Rollback undoes a decoded instruction's rename, youngest-first, as
// part of a mispredict/exception flush.
func (r *RegisterFile) Rollback(d *DecodedInstruction) {
	if d.ADest == AXPUnmappedReg {
		return
	}
	if d.DestFloat {
		r.Float.Rollback(d.ADest, d.Dest, d.PrevDestPr)
	} else {
		r.Int.Rollback(d.ADest, d.Dest, d.PrevDestPr)
	}
}
