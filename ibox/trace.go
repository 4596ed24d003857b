/*
 * axp264ibox - Predictor trace-replay harness.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on the `#if _TEST_PREDICTION_` unit-test driver in
 * original_source/src/AXP_21264_Predictions.c: replay (vpc, taken)
 * pairs through Predict/Train and accumulate the same accuracy and
 * local/global attribution counters.
 */

package ibox

import (
	"bufio"
	"fmt"
	"io"
)

// TraceEntry is one observed branch outcome: a VPC and whether it was
// actually taken.
type TraceEntry struct {
	VPC   uint64
	Taken bool
}

// TraceResult accumulates the accuracy/attribution counters the
// original harness printed per trace file.
type TraceResult struct {
	Instructions  int
	Correct       int
	LocalCorrect  int
	GlobalCorrect int
	ChoiceUsed    int
	ChoiceCorrect int
}

// Accuracy returns Correct/Instructions, or 0 for an empty trace.
func (r TraceResult) Accuracy() float64 {
	if r.Instructions == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Instructions)
}

// ReplayTrace feeds entries through Predict then Train, one at a
// time, exactly as the original harness drove a single predictor
// across a whole trace file.
func ReplayTrace(p *Predictor, entries []TraceEntry) TraceResult {
	var r TraceResult

	for _, e := range entries {
		vpc := NewVPC(e.VPC, false)
		pred := p.Predict(vpc)

		r.Instructions++
		if pred.Taken == e.Taken {
			r.Correct++
		}

		if pred.LocalTaken != pred.GlobalTaken {
			r.ChoiceUsed++
			if pred.Choice {
				if e.Taken == pred.GlobalTaken {
					r.GlobalCorrect++
					r.ChoiceCorrect++
				}
			} else if e.Taken == pred.LocalTaken {
				r.LocalCorrect++
				r.ChoiceCorrect++
			}
		} else if e.Taken == pred.LocalTaken {
			r.LocalCorrect++
			r.GlobalCorrect++
		}

		p.Train(vpc, e.Taken, pred.LocalTaken, pred.GlobalTaken)
	}

	return r
}

// ReadTrace parses the original harness's trace file format: one
// "<vpc> <taken>" pair per line, taken being 0 or 1.
func ReadTrace(r io.Reader) ([]TraceEntry, error) {
	var entries []TraceEntry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		var vpc uint64
		var taken int
		if _, err := fmt.Sscanf(text, "%d %d", &vpc, &taken); err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}
		entries = append(entries, TraceEntry{VPC: vpc, Taken: taken == 1})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
