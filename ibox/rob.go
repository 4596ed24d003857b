/*
 * axp264ibox - Reorder buffer and issue queues.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_21264_Ibox_Retire (ROB retirement sweep),
 * AXP_GetNextIQEntry/AXP_ReturnIQEntry (IQ/FQ free-list pools), and
 * AXP_21264_Ibox_Retire_HW_MFPR (IPR retirement dispatch), all in
 * original_source/src/cpu/AXP_21264_Ibox.c. The retirement sweep's
 * split/end two-pass search is replaced by plain ring-modulo
 * indexing: same wrap semantics, no separate split flag needed in Go.
 */

package ibox

// Store opcodes that write back to memory at retirement
// (AXP_21264_Mbox_RetireWrite callers).
const (
	opSTW  = 0x0d
	opSTB  = 0x0e
	opSTQU = 0x0f
	opSTF  = 0x24
	opSTG  = 0x25
	opSTS  = 0x26
	opSTT  = 0x27
	opSTL  = 0x2c
	opSTQ  = 0x2d
	opSTLC = 0x2e
	opSTQC = 0x2f
)

func isStoreOpcode(opcode uint8) bool {
	switch opcode {
	case opSTW, opSTB, opSTQU, opHWST, opSTF, opSTG, opSTS, opSTT, opSTL, opSTQ, opSTLC, opSTQC:
		return true
	default:
		return false
	}
}

// StoreRetirer commits a retiring store to memory; implemented by the
// Mbox collaborator (spec.md §6).
type StoreRetirer interface {
	RetireWrite(d *DecodedInstruction)
}

// RetiredEntry is one instruction the retirement sweep completed,
// returned so the caller can release its ROB/IQ/FQ/LQ/SQ slots.
type RetiredEntry struct {
	Slot  int
	Instr *DecodedInstruction
}

// ROB is the reorder buffer: a ring of in-flight decoded instructions,
// allocated in program order at dispatch and retired in program order
// once each reaches StateWaitingRetirement (spec.md §4.E).
type ROB struct {
	entries    []*DecodedInstruction
	start, end int
	count      int
}

// NewROB allocates a ROB with room for depth in-flight instructions
// (AXP_INFLIGHT_MAX).
func NewROB(depth int) *ROB {
	return &ROB{entries: make([]*DecodedInstruction, depth)}
}

func (r *ROB) Len() int      { return r.count }
func (r *ROB) Full() bool    { return r.count == len(r.entries) }
func (r *ROB) Empty() bool   { return r.count == 0 }
func (r *ROB) Capacity() int { return len(r.entries) }

// Allocate assigns d the next ROB slot in program order.
func (r *ROB) Allocate(d *DecodedInstruction) (slot int, ok bool) {
	if r.Full() {
		return 0, false
	}
	slot = r.end
	d.ROBSlot = slot
	d.State = StateQueued
	r.entries[slot] = d
	r.end = (r.end + 1) % len(r.entries)
	r.count++
	return slot, true
}

// At returns the instruction occupying slot, if any.
func (r *ROB) At(slot int) *DecodedInstruction {
	return r.entries[slot]
}

// RetireSweep walks the ROB from its oldest entry, completing every
// consecutive instruction already in StateWaitingRetirement, in
// program order, and stopping at the first one that is not (spec.md
// §4.E "in-order retirement"). A faulting instruction is removed
// without committing its results and ends the sweep, so it is always
// the last entry returned.
func (r *ROB) RetireSweep(rf *RegisterFile, mem StoreRetirer, iprs *IPRSet) []RetiredEntry {
	var retired []RetiredEntry

	for r.count > 0 {
		d := r.entries[r.start]
		if d.State != StateWaitingRetirement {
			break
		}

		if d.ExcMask == NoException {
			if d.Opcode == opHWMFPR {
				RetireHWMFPR(iprs, d)
			}
			rf.Retire(d)

			switch {
			case isStoreOpcode(d.Opcode) && mem != nil:
				mem.RetireWrite(d)
			case d.Opcode == opHWMTPR:
				RetireHWMTPR(iprs, d)
			}
		}

		d.State = StateRetired
		retired = append(retired, RetiredEntry{Slot: r.start, Instr: d})

		r.entries[r.start] = nil
		r.start = (r.start + 1) % len(r.entries)
		r.count--

		if d.ExcMask != NoException {
			break
		}
	}

	return retired
}

// FlushFrom discards every in-flight instruction from the ROB's
// newest entry back to (and including) slot, rolling back each one's
// register rename in youngest-first order before moving on to the
// next older one — the previousPr walk-back that undoes a mispredict or
// exception's speculative renames (spec.md §9).
func (r *ROB) FlushFrom(slot int, rf *RegisterFile, release func(*DecodedInstruction)) {
	for r.count > 0 {
		last := (r.end - 1 + len(r.entries)) % len(r.entries)
		d := r.entries[last]
		if d == nil {
			break
		}

		rf.Rollback(d)
		if release != nil {
			release(d)
		}

		r.entries[last] = nil
		r.end = last
		r.count--

		if last == slot {
			break
		}
	}
}

// QueueEntry is one IQ/FQ slot: a pre-allocated holder for a decoded
// instruction waiting to issue.
type QueueEntry struct {
	Valid bool
	Instr *DecodedInstruction
}

// IssueQueue is a counted pool of pre-allocated entries with a
// ring-buffer free-list, matching the iqEntries/iqEFreelist pair in
// the original (AXP_GetNextIQEntry/AXP_ReturnIQEntry). It does not
// record insertion order; see PopAll.
type IssueQueue struct {
	kind     ExecQueueKind
	entries  []QueueEntry
	freeList []int
	flStart  int
	flCount  int
}

// NewIssueQueue allocates an issue queue with depth pre-allocated
// entries, all initially free.
func NewIssueQueue(kind ExecQueueKind, depth int) *IssueQueue {
	q := &IssueQueue{
		kind:     kind,
		entries:  make([]QueueEntry, depth),
		freeList: make([]int, depth),
	}
	for i := range q.freeList {
		q.freeList[i] = i
	}
	q.flCount = depth
	return q
}

func (q *IssueQueue) Len() int  { return len(q.entries) - q.flCount }
func (q *IssueQueue) Free() int { return q.flCount }

// Reserve pulls a free entry off the free-list and assigns it to d,
// returning false if the queue has no free entries (back-pressure).
func (q *IssueQueue) Reserve(d *DecodedInstruction) (slot int, ok bool) {
	if q.flCount == 0 {
		return 0, false
	}
	slot = q.freeList[q.flStart]
	q.flStart = (q.flStart + 1) % len(q.freeList)
	q.flCount--

	q.entries[slot] = QueueEntry{Valid: true, Instr: d}
	d.ExecQueue = q.kind
	d.ExecSlot = slot
	return slot, true
}

// Release returns an entry to the free-list once its instruction has
// issued (or been flushed).
func (q *IssueQueue) Release(slot int) {
	q.entries[slot] = QueueEntry{}
	flEnd := (q.flStart + q.flCount) % len(q.freeList)
	q.freeList[flEnd] = slot
	q.flCount++
}

// PopAll drains every currently valid entry, releasing each slot back
// to the free-list, and returns the instructions in slot-index order,
// which is not necessarily the order they were reserved in. Used
// by the execution boxes to take a batch of ready instructions off the
// queue under a single lock acquisition.
func (q *IssueQueue) PopAll() []*DecodedInstruction {
	var out []*DecodedInstruction
	for slot := range q.entries {
		if q.entries[slot].Valid {
			out = append(out, q.entries[slot].Instr)
			q.Release(slot)
		}
	}
	return out
}
