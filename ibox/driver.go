/*
 * axp264ibox - Ibox front-end driver loop and box lifecycle.
 *
 * Copyright 2024, Richard Cornwell
 *
 * The fetch/decode/rename/dispatch loop is grounded on spec.md §4.F,
 * itself distilled from AXP_21264_Ibox_Main in
 * original_source/src/cpu/AXP_21264_Ibox.c. The outer goroutine/
 * WaitGroup/done-channel lifecycle follows emu/core/core.go's
 * Start/Stop pattern from the teacher; the internal suspension points
 * spec.md §5 names by variable (cpuCond, iBoxCondition, ...) are
 * implemented directly with sync.Mutex/sync.Cond so that inventory
 * stays traceable one-to-one against the spec.
 */

package ibox

import (
	"log/slog"
	"sync"
)

// RunState is the Ibox lifecycle state machine (spec.md §4.F).
type RunState int

const (
	StateInit RunState = iota
	StateRun
	StateShuttingDown
)

// Mbox is the subset of the memory-pipeline collaborator interface
// the Ibox calls directly (spec.md §6).
type Mbox interface {
	StoreRetirer
	RequestLQSlot(d *DecodedInstruction) (slot int, ok bool)
	RequestSQSlot(d *DecodedInstruction) (slot int, ok bool)
}

// Cbox is the cache/bus collaborator interface the Ibox calls on a
// miss (spec.md §6's "add_maf").
type Cbox interface {
	AddMAF(physAddr uint64, length int, istream bool)
}

// ExecQueues bundles the IQ/FQ pair plus the condition variables the
// Ibox broadcasts on when it inserts and the execution boxes wait on
// (spec.md §5).
type ExecQueues struct {
	IQ *IssueQueue
	FQ *IssueQueue

	EboxMu   sync.Mutex
	EboxCond *sync.Cond
	FboxMu   sync.Mutex
	FboxCond *sync.Cond
}

func NewExecQueues(iqLen, fqLen int) *ExecQueues {
	eq := &ExecQueues{IQ: NewIssueQueue(ExecQueueIQ, iqLen), FQ: NewIssueQueue(ExecQueueFQ, fqLen)}
	eq.EboxCond = sync.NewCond(&eq.EboxMu)
	eq.FboxCond = sync.NewCond(&eq.FboxMu)
	return eq
}

// Driver owns the whole Ibox front end: VPC ring, predictor, Icache/
// ITB, register files, ROB, issue queues, event intake, and the
// mutex/condvar set spec.md §5 enumerates.
type Driver struct {
	log *slog.Logger

	cpuMu   sync.Mutex
	cpuCond *sync.Cond
	state   RunState

	iBoxMu   sync.Mutex
	iBoxCond *sync.Cond

	robMu sync.Mutex

	VPC       *Ring
	Predictor *Predictor
	ICache    *ICache
	ITB       *ITB
	Regs      *RegisterFile
	ROB       *ROB
	Queues    *ExecQueues
	Events    *EventState
	IPRs      *IPRSet

	AccessMode uint8

	Mbox Mbox
	Cbox Cbox

	instrCounter uint8
	done         chan struct{}
	wg           sync.WaitGroup
}

// Config bundles the sizes SPEC_FULL.md's config layer resolves into
// concrete structure capacities.
type Config struct {
	InflightMax   int
	IQLen         int
	FQLen         int
	IntPhysical   int
	FloatPhysical int
	ITBEntries    int
	MajorType     MajorType
}

// NewDriver builds an idle (StateInit) Ibox front end.
func NewDriver(log *slog.Logger, cfg Config, mbox Mbox, cbox Cbox) *Driver {
	d := &Driver{
		log:        log,
		VPC:        NewRing(cfg.InflightMax),
		Predictor:  NewPredictor(),
		ICache:     NewICache(),
		ITB:        NewITB(cfg.ITBEntries),
		Regs:       NewRegisterFile(cfg.IntPhysical, cfg.FloatPhysical),
		ROB:        NewROB(cfg.InflightMax),
		Queues:     NewExecQueues(cfg.IQLen, cfg.FQLen),
		Events:     &EventState{},
		IPRs:       NewIPRSet(cfg.MajorType),
		AccessMode: AccessKernel,
		Mbox:       mbox,
		Cbox:       cbox,
		done:       make(chan struct{}),
	}
	d.cpuCond = sync.NewCond(&d.cpuMu)
	d.iBoxCond = sync.NewCond(&d.iBoxMu)
	return d
}

// Start launches the front-end goroutine and transitions to Run.
func (d *Driver) Start() {
	d.wg.Add(1)
	go d.loop()

	d.cpuMu.Lock()
	d.state = StateRun
	d.cpuCond.Broadcast()
	d.cpuMu.Unlock()
}

// Stop requests an orderly shutdown and waits for the front end to
// exit its loop.
func (d *Driver) Stop() {
	d.cpuMu.Lock()
	d.state = StateShuttingDown
	d.cpuCond.Broadcast()
	d.cpuMu.Unlock()

	close(d.done)

	d.Queues.EboxMu.Lock()
	d.Queues.EboxCond.Broadcast()
	d.Queues.EboxMu.Unlock()

	d.Queues.FboxMu.Lock()
	d.Queues.FboxCond.Broadcast()
	d.Queues.FboxMu.Unlock()

	d.wg.Wait()
}

// Done returns the channel that closes once Stop has been called,
// so collaborator goroutines (Ebox/Fbox execution loops) know when to
// exit.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

func (d *Driver) runState() RunState {
	d.cpuMu.Lock()
	defer d.cpuMu.Unlock()
	for d.state == StateInit {
		d.cpuCond.Wait()
	}
	return d.state
}

// loop is the Init->Run->ShuttingDown state machine (spec.md §4.F).
func (d *Driver) loop() {
	defer d.wg.Done()

	for d.runState() == StateRun {
		select {
		case <-d.done:
			return
		default:
		}
		d.cycle()
	}
}

// cycle runs one iteration of the fetch/decode/rename/dispatch loop.
func (d *Driver) cycle() {
	vpc := d.nextVPC()

	result, words, pcs, formats := d.ICache.Fetch(vpc, d.AccessMode)
	switch result {
	case FetchHit:
		d.dispatchLine(words, pcs, formats)
	case FetchMiss, FetchWayMiss:
		d.handleMiss(vpc)
	}

	d.waitIfBlocked()
}

// nextVPC implements step 1: an exception redirect takes priority
// over the VPC ring's natural sequence.
func (d *Driver) nextVPC() VPC {
	if ev, ok := d.Events.Pending(); ok {
		d.Events.Clear()
		d.VPC.Append(ev.ExcPC)
		return ev.ExcPC
	}
	return d.VPC.Current()
}

// dispatchLine handles an Icache hit: decode/rename up to 4
// instructions, predict branches, request LQ/SQ slots, and enqueue
// into IQ/FQ (spec.md §4.F step 2, Hit case).
func (d *Driver) dispatchLine(words [4]uint32, pcs [4]VPC, formats [4]InstructionFormat) {
	for i := 0; i < 4; i++ {
		if formats[i] == FmtRes && words[i] == 0 {
			break
		}

		d.instrCounter++
		decoded := Decode(d.instrCounter, pcs[i], words[i], d.IPRs.CallPalR23)

		slot, ok := d.ROB.Allocate(&decoded)
		if !ok {
			d.waitIfBlocked()
			return
		}
		inst := d.ROB.At(slot)

		d.Regs.Rename(inst)

		if inst.OpType == OpBranch {
			d.predictBranch(inst)
		}

		if inst.Dest == AXPUnmappedReg && inst.OpType != OpBranch && inst.Function != funcMTFPCR {
			inst.State = StateWaitingRetirement
		} else {
			inst.State = StateQueued
		}

		if inst.OpType == OpLoad && d.Mbox != nil {
			if qslot, ok := d.Mbox.RequestLQSlot(inst); ok {
				inst.QueueSlotKind, inst.QueueSlot = QueueLoad, qslot
			}
		} else if inst.OpType == OpStore && d.Mbox != nil {
			if qslot, ok := d.Mbox.RequestSQSlot(inst); ok {
				inst.QueueSlotKind, inst.QueueSlot = QueueStore, qslot
			}
		}

		d.enqueueExec(inst)
		d.VPC.Append(pcs[i].Increment())
	}
}

// predictBranch consults the tournament predictor and records its
// verdicts on inst. For a predicted-taken branch whose target misses
// the Icache, it translates the target through the ITB and submits a
// fill request; a target with no ITB entry gets no request and raises
// no event. The VPC ring is not redirected to the target.
func (d *Driver) predictBranch(inst *DecodedInstruction) {
	pred := d.Predictor.Predict(inst.VPC)
	inst.PredictedTaken = pred.Taken
	inst.LocalTaken = pred.LocalTaken
	inst.GlobalTaken = pred.GlobalTaken
	inst.Choice = pred.Choice

	if !pred.Taken {
		return
	}

	target := inst.VPC.Displace(int64(inst.Disp))
	if d.ICache.Valid(target, d.AccessMode) || d.Cbox == nil {
		return
	}
	entry, ok := d.ITB.Lookup(target.PC()>>13, d.IPRs.ITBAsn)
	if !ok {
		return
	}
	d.Cbox.AddMAF((entry.PFN<<13)|(target.PC()&(1<<13-1)), 64, true)
}

// AXP_InstructionQueue-equivalent routing: integer ops go to IQ,
// floating ops to FQ, with the ITFP/FPTI split routed by function
// code rather than opcode alone (spec.md §4.E).
const (
	opITFP = 0x14
	opFPTI = 0x1c
)

// enqueueExec selects IQ vs FQ and enqueues, broadcasting the
// corresponding execution-box condition; on a full queue it
// back-pressures by waiting on the Ibox condition (spec.md §4.F step
// 2, "Enqueue").
func (d *Driver) enqueueExec(inst *DecodedInstruction) {
	toFloat := inst.DestFloat || inst.Src1Float || inst.Src2Float
	if inst.Opcode == opITFP {
		toFloat = false // integer-to-float: address/result computed in the integer pipe.
	} else if inst.Opcode == opFPTI {
		toFloat = true
	}

	if toFloat {
		for {
			d.Queues.FboxMu.Lock()
			if _, ok := d.Queues.FQ.Reserve(inst); ok {
				d.Queues.FboxCond.Broadcast()
				d.Queues.FboxMu.Unlock()
				return
			}
			d.Queues.FboxMu.Unlock()
			d.iBoxWait()
		}
	}

	for {
		d.Queues.EboxMu.Lock()
		if _, ok := d.Queues.IQ.Reserve(inst); ok {
			d.Queues.EboxCond.Broadcast()
			d.Queues.EboxMu.Unlock()
			return
		}
		d.Queues.EboxMu.Unlock()
		d.iBoxWait()
	}
}

// handleMiss implements the Miss/WayMiss path: translate via the ITB,
// raising ITB_MISS when absent, otherwise submitting a MAF and
// suspending until the Cbox signals progress (spec.md §4.F step 2).
func (d *Driver) handleMiss(vpc VPC) {
	vpn := vpc.PC() >> 13
	entry, ok := d.ITB.Lookup(vpn, d.IPRs.ITBAsn)
	if !ok {
		d.Events.Raise(d.IPRs.MajorType, d.IPRs.PalBase, ExcITBMiss, vpc.PC(), 0, 0, false)
		return
	}

	physAddr := (entry.PFN << 13) | (vpc.PC() & (1<<13 - 1))
	if d.Cbox != nil {
		d.Cbox.AddMAF(physAddr, 64, true)
	}
	d.iBoxWait()
}

// waitIfBlocked implements step 3: unless an exception is pending,
// block on the Ibox condition when the current VPC's line is not yet
// valid in the Icache or both issue queues are full.
func (d *Driver) waitIfBlocked() {
	if _, pending := d.Events.Pending(); pending {
		return
	}
	if !d.ICache.Valid(d.VPC.Current(), d.AccessMode) {
		d.iBoxWait()
		return
	}
	if d.Queues.IQ.Free() == 0 && d.Queues.FQ.Free() == 0 {
		d.iBoxWait()
	}
}

func (d *Driver) iBoxWait() {
	d.iBoxMu.Lock()
	d.iBoxCond.Wait()
	d.iBoxMu.Unlock()
}

// SignalIBox wakes the front end; called by the execution/memory/
// cache boxes whenever they make progress the front end might be
// blocked on (spec.md §6).
func (d *Driver) SignalIBox() {
	d.iBoxMu.Lock()
	d.iBoxCond.Broadcast()
	d.iBoxMu.Unlock()
}

// Retire runs one retirement sweep and applies a flush if the just-
// retired window uncovered a pending exception (spec.md §4.E, §5).
func (d *Driver) Retire() []RetiredEntry {
	d.robMu.Lock()
	defer d.robMu.Unlock()

	retired := d.ROB.RetireSweep(d.Regs, d.Mbox, d.IPRs)

	for _, r := range retired {
		if r.Instr.OpType == OpBranch {
			d.Predictor.Train(r.Instr.VPC, r.Instr.ActualTaken, r.Instr.LocalTaken, r.Instr.GlobalTaken)
		}
		if r.Instr.ExcMask != NoException {
			d.flushAfterException(r)
			break
		}
	}

	return retired
}

// flushAfterException discards every in-flight instruction newer than
// the faulting one, rolling back renames youngest-first (spec.md §5
// "Cancellation / flush semantics").
func (d *Driver) flushAfterException(faulting RetiredEntry) {
	release := func(inst *DecodedInstruction) {
		switch inst.ExecQueue {
		case ExecQueueIQ:
			d.Queues.IQ.Release(inst.ExecSlot)
		case ExecQueueFQ:
			d.Queues.FQ.Release(inst.ExecSlot)
		}
	}
	d.ROB.FlushFrom(faulting.Slot, d.Regs, release)
	d.SignalIBox()
}
