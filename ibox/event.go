/*
 * axp264ibox - Event/exception intake.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_21264_Ibox_Event in
 * original_source/src/cpu/AXP_21264_Ibox.c: the IPR side effects of
 * each fault, the HW_LD/HW_ST opcode normalization, the set_iov
 * sign-extension quirk (reproduced bit-for-bit, not "fixed"), and the
 * "swallow" rule that only the first pending exception is recorded.
 */

package ibox

const (
	opHWLDRaw = 0x1b
	opHWSTRaw = 0x1f
	hwOpcodeAdjust = 0x18
)

// MMStat mirrors the 21264 MM_STAT IPR: the opcode, register, and
// read/write sense of the memory-management fault that last fired.
type MMStat struct {
	Opcode uint8
	Write  bool
	ForWrite bool // fow: fault-on-write.
	ForRead  bool // for: fault-on-read.
	ACV      bool // access violation.
}

// ExcSum mirrors the 21264 EXC_SUM IPR fields this emulator uses: the
// faulting architectural register, the bad-IVA flag, and the
// arithmetic sticky/set bits with their sign-extension quirk.
type ExcSum struct {
	Reg        uint8
	BadIVA     bool
	SetIOV     bool
	SextSetIOV uint16 // set to 0xffff when SetIOV fires, matching the original bit-for-bit.
}

// ISum mirrors the 21264 I_SUM IPR's external-interrupt field.
type ISum struct {
	EI uint8
}

// PendingEvent is the first unhandled exception/event recorded
// against the Ibox; spec.md §7's "swallow" rule means at most one of
// these is live until it is cleared.
type PendingEvent struct {
	Fault  ExceptionMask
	ExcPC  VPC
	VA     uint64
	MMStat MMStat
	ExcSum ExcSum
	ISum   ISum
}

// EventState holds the fault-intake IPRs and pending-exception flag
// (spec.md §7).
type EventState struct {
	pending *PendingEvent
}

// Pending reports the currently-recorded event, if any.
func (e *EventState) Pending() (PendingEvent, bool) {
	if e.pending == nil {
		return PendingEvent{}, false
	}
	return *e.pending, true
}

// Clear discards the recorded event once the main loop has finished
// processing it, re-arming intake for the next fault.
func (e *EventState) Clear() {
	e.pending = nil
}

// Raise records fault against the Ibox's pending-event slot,
// replicating AXP_21264_Ibox_Event. If an event is already pending,
// this one is swallowed (spec.md §7): only the first fault recorded
// since the last Clear is kept. palBase is the CPU's PAL_BASE IPR
// value (spec.md §6's excPC = PAL_BASE ⊕ fault-offset); the faulting
// instruction's own pc has no bearing on where PALcode is entered.
func (e *EventState) Raise(major MajorType, palBase uint64, fault ExceptionMask, va uint64, opcode uint8, reg uint8, write bool) {
	if e.pending != nil {
		return
	}

	mmStatOpcode := opcode
	if opcode == opHWLDRaw || opcode == opHWSTRaw {
		mmStatOpcode -= hwOpcodeAdjust
	}

	ev := &PendingEvent{Fault: fault}

	switch fault {
	case ExcDTBMDouble3, ExcDTBMDouble4, ExcITBMiss, ExcDTBMSingle:
		ev.MMStat.Opcode = mmStatOpcode
		ev.MMStat.Write = write
		ev.VA = va
		ev.ExcSum.Reg = reg

	case ExcDFault, ExcUnaligned:
		ev.ExcSum.Reg = reg
		ev.MMStat.Opcode = mmStatOpcode
		ev.MMStat.Write = write
		ev.MMStat.ForWrite = write
		ev.MMStat.ForRead = !write
		ev.MMStat.ACV = true
		ev.VA = va

	case ExcIACV:
		ev.ExcSum.BadIVA = false // VA already contains the faulting address.
		ev.VA = va

	case ExcArith, ExcFEN, ExcMTFPCRTrap:
		ev.ExcSum.Reg = reg

	case ExcOpcdec:
		ev.MMStat.Opcode = mmStatOpcode

	case ExcInterrupt:
		// Raise takes no pending-interrupt argument: ev.ISum.EI stays
		// zero and no interrupt request is cleared here.

	case ExcMchk, ExcResetWakeup:
		// No IPR side effects beyond the excPC below.
	}

	if ev.ExcSum.SetIOV {
		ev.ExcSum.SextSetIOV = 0xffff
	}

	ev.ExcPC = excPCFor(major, palBase, fault)
	e.pending = ev
}

// excPCFor computes the PC the Ibox hands off to PALcode for the
// given fault, by composing the PAL entry point for that fault's
// function code from the CPU's current PAL_BASE IPR
// (AXP_21264_GetPALFuncVPC via PALPCBits).
func excPCFor(major MajorType, palBase uint64, fault ExceptionMask) VPC {
	highPC, _ := DecomposePALPC(major, VPC(palBase))
	return PALPCBits(major, highPC, palFunctionFor(fault))
}

// palFunctionFor maps a fault to the PALcode entry-point function
// code it dispatches to.
func palFunctionFor(fault ExceptionMask) uint32 {
	switch fault {
	case ExcITBMiss:
		return 0x04
	case ExcDTBMSingle:
		return 0x08
	case ExcDTBMDouble3:
		return 0x09
	case ExcDTBMDouble4:
		return 0x0a
	case ExcDFault:
		return 0x0b
	case ExcUnaligned:
		return 0x11
	case ExcIACV:
		return 0x02
	case ExcArith:
		return 0x15
	case ExcFEN:
		return 0x0d
	case ExcMTFPCRTrap:
		return 0x15
	case ExcOpcdec:
		return 0x0c
	case ExcInterrupt:
		return 0x01
	case ExcMchk:
		return 0x06
	case ExcResetWakeup:
		return 0x00
	default:
		return 0x00
	}
}
