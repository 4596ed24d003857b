/*
 * axp264ibox - Ebox collaborator stub: integer execution.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Actual integer arithmetic is out of scope for this core (spec.md
 * Non-goals); this package implements only the completion contract
 * spec.md §6 requires of an execution box: compute destv, mark the
 * physical register Valid, mark the ROB entry WaitingRetirement, and
 * signal the Ibox condition. Grounded on the Ebox/Fbox thread
 * structure implied by AXP_21264_Ibox.c's iBoxCondition/eBoxCondition
 * wait-then-execute pattern.
*/

package ebox

import "github.com/belanger/axp264ibox/ibox"

// Execute finishes one integer instruction popped off the IQ: it
// computes a placeholder result (real arithmetic is a distinct
// execution unit, out of scope here), then marks the destination
// register Valid and the instruction WaitingRetirement.
func Execute(inst *ibox.DecodedInstruction, regs *ibox.RegisterFile) {
	inst.DestValue = 0
	if inst.OpType == ibox.OpBranch {
		inst.ActualTaken = inst.PredictedTaken
	}

	if inst.Dest != ibox.AXPUnmappedReg {
		rm := regs.Int
		if inst.DestFloat {
			rm = regs.Float
		}
		rm.SetState(inst.ADest, ibox.RegValid)
	}
	inst.State = ibox.StateWaitingRetirement
}
