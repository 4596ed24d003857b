/*
 * axp264ibox - CPU wiring and inspection surface.
 *
 * Copyright 2024, Richard Cornwell
 */

package ibox

import (
	"fmt"
	"log/slog"
)

// CPU owns the Ibox front end and exposes the summaries the console
// package's Inspector interface needs.
type CPU struct {
	*Driver
}

// NewCPU constructs a CPU with an idle Ibox front end.
func NewCPU(log *slog.Logger, cfg Config, mbox Mbox, cbox Cbox) *CPU {
	return &CPU{Driver: NewDriver(log, cfg, mbox, cbox)}
}

// ROBSummary reports ROB occupancy for the inspection console.
func (c *CPU) ROBSummary() string {
	c.robMu.Lock()
	defer c.robMu.Unlock()
	return fmt.Sprintf("ROB: %d/%d in flight (start=%d end=%d)", c.ROB.Len(), c.ROB.Capacity(), c.ROB.start, c.ROB.end)
}

// PredictorSummary reports a coarse view of the predictor tables.
func (c *CPU) PredictorSummary() string {
	takenLocal, takenGlobal := 0, 0
	for _, v := range c.Predictor.localPred {
		if v >= local3BitTakenThreshold {
			takenLocal++
		}
	}
	for _, v := range c.Predictor.globalPred {
		if v >= twoBitTakenThreshold {
			takenGlobal++
		}
	}
	return fmt.Sprintf("predictor: %d/%d local slots taken-leaning, %d/%d global slots taken-leaning",
		takenLocal, len(c.Predictor.localPred), takenGlobal, len(c.Predictor.globalPred))
}

// ICacheSummary reports Icache occupancy.
func (c *CPU) ICacheSummary() string {
	valid := 0
	for _, set := range c.ICache.sets {
		for _, line := range set {
			if line.Valid {
				valid++
			}
		}
	}
	total := len(c.ICache.sets) * icacheWays
	return fmt.Sprintf("icache: %d/%d lines valid", valid, total)
}
