/*
 * axp264ibox - Mbox collaborator stub: load/store queues and store commit.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_21264_Mbox_GetLQSlot/GetSQSlot/RetireWrite in
 * original_source/src/cpu/AXP_21264_Ibox.c. The memory pipeline proper
 * (Dcache, DTB, the actual load/store execution) is out of scope for
 * this core (spec.md Non-goals); this package implements only the
 * slot bookkeeping and signaling contract the Ibox calls across
 * (spec.md §6), modeled as a counted FIFO the way the teacher's
 * channel-based device mailboxes are (emu/core/core.go).
 */

package mbox

import "github.com/belanger/axp264ibox/ibox"

// Mbox holds the load and store queues and notifies the Ibox when a
// retiring store has committed.
type Mbox struct {
	lq *slots
	sq *slots

	signal func()
}

// New builds an Mbox with lq/sq entries of the given depth. signal is
// called whenever the Mbox makes progress the Ibox might be blocked
// on (spec.md §5's Ibox condition).
func New(lqDepth, sqDepth int, signal func()) *Mbox {
	return &Mbox{lq: newSlots(lqDepth), sq: newSlots(sqDepth), signal: signal}
}

// RequestLQSlot implements ibox.Mbox.
func (m *Mbox) RequestLQSlot(d *ibox.DecodedInstruction) (int, bool) {
	return m.lq.reserve(d)
}

// RequestSQSlot implements ibox.Mbox.
func (m *Mbox) RequestSQSlot(d *ibox.DecodedInstruction) (int, bool) {
	return m.sq.reserve(d)
}

// RetireWrite commits a retiring store's value, releasing its SQ slot
// (AXP_21264_Mbox_RetireWrite).
func (m *Mbox) RetireWrite(d *ibox.DecodedInstruction) {
	if d.QueueSlotKind == ibox.QueueStore {
		m.sq.release(d.QueueSlot)
	}
	if m.signal != nil {
		m.signal()
	}
}

// slots is a simple counted free-list, the same shape as the IQ/FQ
// pools in ibox.IssueQueue, sized for the LQ/SQ depths configured for
// this Mbox.
type slots struct {
	used     []*ibox.DecodedInstruction
	freeList []int
	flStart  int
	flCount  int
}

func newSlots(depth int) *slots {
	s := &slots{used: make([]*ibox.DecodedInstruction, depth), freeList: make([]int, depth)}
	for i := range s.freeList {
		s.freeList[i] = i
	}
	s.flCount = depth
	return s
}

func (s *slots) reserve(d *ibox.DecodedInstruction) (int, bool) {
	if s.flCount == 0 {
		return 0, false
	}
	slot := s.freeList[s.flStart]
	s.flStart = (s.flStart + 1) % len(s.freeList)
	s.flCount--
	s.used[slot] = d
	return slot, true
}

func (s *slots) release(slot int) {
	s.used[slot] = nil
	flEnd := (s.flStart + s.flCount) % len(s.freeList)
	s.freeList[flEnd] = slot
	s.flCount++
}
