/*
 * axp264ibox - Ibox core data model.
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

// Package ibox implements the instruction-issue core of an Alpha 21264
// (EV6) emulator: VPC stream, tournament branch prediction, Icache/ITB,
// decode and register rename, the ROB and its issue queues, and the
// front-end driver that ties them together.
package ibox

// AXPUnmappedReg is the architectural register number that always
// reads as zero and discards writes (R31 / F31).
const AXPUnmappedReg = 31

// InstructionFormat classifies the 32-bit instruction word.
type InstructionFormat int

const (
	FmtBra InstructionFormat = iota
	FmtFPBra
	FmtFP
	FmtMem
	FmtMbr
	FmtMfc
	FmtOpr
	FmtPcd
	FmtPAL
	FmtRes
)

// OperType is the coarse operation classification used for pipeline
// and issue-queue routing decisions.
type OperType int

const (
	OpOther OperType = iota
	OpLoad
	OpStore
	OpBranch
	OpArith
	OpLogic
	OpOper
)

// PipelineClass is the functional-unit pipe an instruction targets.
type PipelineClass int

const (
	PipeNone PipelineClass = iota
	PipeL0
	PipeL1
	PipeU0
	PipeU1
	PipeFA
	PipeFM
)

// InstructionState is the per-ROB-entry lifecycle state (spec §3).
type InstructionState int

const (
	StateRetired InstructionState = iota
	StateQueued
	StateExecuting
	StateWaitingRetirement
)

func (s InstructionState) String() string {
	switch s {
	case StateRetired:
		return "Retired"
	case StateQueued:
		return "Queued"
	case StateExecuting:
		return "Executing"
	case StateWaitingRetirement:
		return "WaitingRetirement"
	default:
		return "Unknown"
	}
}

// PhysRegState is the lifecycle of a physical register (spec §3).
type PhysRegState int

const (
	RegPending PhysRegState = iota
	RegValid
	RegWaitingRetirement
)

// ExceptionMask identifies the fault pending against a ROB entry. The
// zero value means no exception.
type ExceptionMask int

const (
	NoException ExceptionMask = iota
	ExcITBMiss
	ExcDTBMSingle
	ExcDTBMDouble3
	ExcDTBMDouble4
	ExcDFault
	ExcUnaligned
	ExcIACV
	ExcArith
	ExcFEN
	ExcMTFPCRTrap
	ExcOpcdec
	ExcInterrupt
	ExcMchk
	ExcResetWakeup
)

// QueueKind selects which memory-ordering queue (LQ/SQ) an instruction
// reserved a slot in.
type QueueKind int

const (
	QueueNone QueueKind = iota
	QueueLoad
	QueueStore
)

// ExecQueueKind selects which issue queue (IQ/FQ) an instruction
// reserved a slot in. Distinct from QueueKind: a load or store
// reserves both an LQ/SQ slot (Mbox, QueueKind) and an IQ slot
// (Ibox, ExecQueueKind) at the same time.
type ExecQueueKind int

const (
	ExecQueueNone ExecQueueKind = iota
	ExecQueueIQ
	ExecQueueFQ
)

// DecodedInstruction is the per-ROB-slot decoded/renamed instruction
// record (spec §3 "Decoded instruction").
type DecodedInstruction struct {
	ID       uint8 // Monotonically-wrapping unique id.
	ROBSlot  int
	Format   InstructionFormat
	Opcode   uint8
	Function uint32
	Disp     int32

	ASrc1, ASrc2, ADest uint8 // Architectural register numbers.
	Src1, Src2, Dest     int   // Renamed physical register numbers.
	Src1Float, Src2Float bool
	DestFloat            bool

	Pipeline PipelineClass
	OpType   OperType

	VPC            VPC
	PredictedTaken bool
	LocalTaken     bool
	GlobalTaken    bool
	Choice         bool
	ActualTaken    bool // set by the executing box once the branch resolves.

	QueueSlotKind QueueKind // LQ/SQ membership, assigned by the Mbox.
	QueueSlot     int

	ExecQueue ExecQueueKind // IQ/FQ membership, assigned at dispatch.
	ExecSlot  int

	State      InstructionState
	ExcMask    ExceptionMask
	FaultMask  uint32
	DestValue  uint64
	PrevSrc1Pr int // previous mapping for rollback bookkeeping (src side unused normally)
	PrevDestPr int // pr displaced by this rename; AXPUnmappedReg if none (AXPUnmappedReg dest)
}
