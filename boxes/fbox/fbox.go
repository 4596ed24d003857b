/*
 * axp264ibox - Fbox collaborator stub: floating-point execution.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Mirrors boxes/ebox's completion contract for the floating pipe
 * (spec.md §6); real floating-point arithmetic is out of scope
 * (spec.md Non-goals).
 */

package fbox

import "github.com/belanger/axp264ibox/ibox"

// Execute finishes one floating-point instruction popped off the FQ.
func Execute(inst *ibox.DecodedInstruction, regs *ibox.RegisterFile) {
	inst.DestValue = 0

	if inst.Dest != ibox.AXPUnmappedReg {
		regs.Float.SetState(inst.ADest, ibox.RegValid)
	}
	inst.State = ibox.StateWaitingRetirement
}
