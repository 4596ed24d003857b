/*
 * axp264ibox - Internal Processor Register set and per-box mutex routing.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on the IPR index ranges tested in
 * AXP_21264_Ibox_Retire_HW_MFPR/MTPR (original_source/src/cpu/AXP_21264_Ibox.c):
 * each IPR index range is owned by exactly one box's mutex, selected
 * by a bracket test rather than a per-register lookup table.
 */

package ibox

import "sync"

// Box identifies which functional unit owns a given IPR's mutex.
type Box int

const (
	BoxIbox Box = iota
	BoxMbox
	BoxEbox
	BoxCbox
)

// Ibox-owned IPRs that this emulator models as named IPRSet fields
// rather than raw storage. PAL_BASE is read back outside of
// HW_MFPR/HW_MTPR (it feeds excPCFor); CM is only reached through
// HW_MFPR/HW_MTPR, and fetch access checks use Driver.AccessMode
// instead. Everything else routed to BoxIbox falls through to the
// generic regs[] array.
const (
	iprPalBase = 0x0a
	iprCM      = 0x0b
)

// IPR index ranges, named for the registers that bound them. Exact
// numbering follows the 21264 IPR address map; what matters for
// routing is which box's mutex a given index falls under.
const (
	iprIboxLow1  = 0x00
	iprIboxHigh1 = 0x0f // ITB_TAG .. SLEEP
	iprIboxLow2  = 0x10
	iprIboxHigh2 = 0x17 // PCXT0 .. PCXT1_FPE_PPCE_ASTRR_ASTER_ASN

	iprMboxLow1  = 0x18
	iprMboxHigh1 = 0x23 // DTB_TAG0 .. DC_STAT
	iprMboxLow2  = 0x24
	iprMboxHigh2 = 0x2b // DTB_TAG1 .. DTB_ASN1

	iprEboxLow  = 0x2c
	iprEboxHigh = 0x33 // CC .. VA_CTL

	// Everything else (Cbox) lives at indices >= iprCboxLow.
	iprCboxLow = 0x34
)

// RouteIPR returns which box's mutex an IPR index is owned by,
// matching the bracket chain in AXP_21264_Ibox_Retire_HW_MFPR/MTPR.
func RouteIPR(index int) Box {
	switch {
	case index >= iprIboxLow1 && index <= iprIboxHigh1,
		index >= iprIboxLow2 && index <= iprIboxHigh2:
		return BoxIbox
	case index >= iprMboxLow1 && index <= iprMboxHigh1,
		index >= iprMboxLow2 && index <= iprMboxHigh2:
		return BoxMbox
	case index >= iprEboxLow && index <= iprEboxHigh:
		return BoxEbox
	default:
		return BoxCbox
	}
}

// IPRSet holds the architected IPR values the Ibox itself owns, plus
// the per-box mutexes §5 and §6 require for HW_MFPR/HW_MTPR access.
type IPRSet struct {
	PalBase    uint64
	CM         uint8 // current mode.
	ICSR       uint64
	IVAPTBR    uint64
	ITBAsn     uint8
	CallPalR23 bool // I_CTL.call_pal_r23.
	MajorType  MajorType

	regs [0x40]uint64 // IPR storage, indexed by the ranges above.

	boxMu [4]sync.Mutex // indexed by Box: iBoxIPRMutex, mBoxIPRMutex, eBoxIPRMutex, cBoxIPRMutex.
}

// NewIPRSet constructs the Ibox's IPR state with its per-box mutexes.
func NewIPRSet(major MajorType) *IPRSet {
	return &IPRSet{MajorType: major}
}

// Lock acquires the mutex guarding the box that owns the given IPR
// index, returning an unlock function.
func (s *IPRSet) Lock(index int) (unlock func()) {
	m := &s.boxMu[RouteIPR(index)]
	m.Lock()
	return m.Unlock
}

// RetireHWMFPR implements the read side of AXP_21264_Ibox_Retire_HW_MFPR:
// lock the IPR's owning box mutex, read its value into the
// instruction's result. PAL_BASE and CM are backed by named IPRSet
// fields rather than the generic regs[] array; every other index
// falls through to generic storage.
func RetireHWMFPR(s *IPRSet, d *DecodedInstruction) {
	idx := int(d.Function) % len(s.regs)
	unlock := s.Lock(idx)
	defer unlock()

	switch idx {
	case iprPalBase:
		d.DestValue = s.PalBase
	case iprCM:
		d.DestValue = uint64(s.CM)
	default:
		d.DestValue = s.regs[idx]
	}
}

// RetireHWMTPR implements the write side (AXP_21264_Ibox_Retire_HW_MFPR's
// HW_MTPR branch, split into its own function per spec.md §9): lock
// the IPR's owning box mutex, store the instruction's DestValue (the
// value its executing box computed).
func RetireHWMTPR(s *IPRSet, d *DecodedInstruction) {
	idx := int(d.Function) % len(s.regs)
	unlock := s.Lock(idx)
	defer unlock()

	switch idx {
	case iprPalBase:
		s.PalBase = d.DestValue
	case iprCM:
		s.CM = uint8(d.DestValue)
	default:
		s.regs[idx] = d.DestValue
	}
}
