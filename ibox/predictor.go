/*
 * axp264ibox - Tournament branch predictor.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on original_source/src/AXP_21264_Predictions.c
 * (AXP_Branch_Prediction / AXP_Branch_Direction), kept line-for-line in
 * its saturating-counter and choice-update logic.
 */

package ibox

const (
	localHistoryBits = 10 // 1024-entry local history table, 10-bit shift register.
	localHistorySize = 1 << localHistoryBits
	localPredSize    = 1 << localHistoryBits // indexed by the 10-bit local history value.
	globalBits       = 12
	globalSize       = 1 << globalBits // 4096-entry global/choice tables.

	local3BitMax = 7 // 3-bit saturating counter [0,7], taken iff >= 4.
	local3BitMin = 0
	local3BitTakenThreshold = 4

	twoBitMax = 3 // 2-bit saturating counter [0,3], taken iff >= 2.
	twoBitMin = 0
	twoBitTakenThreshold = 2
)

// vpcLocalIndex extracts the Local History Table index from VPC bits
// [11:2] (spec.md §3).
func vpcLocalIndex(vpc VPC) int {
	return int((uint64(vpc) >> 2) & (localHistorySize - 1))
}

// Predictor implements the tournament branch predictor: local history
// + local saturating counters, a global path history + global
// saturating counters, and a choice predictor selecting between them.
type Predictor struct {
	localHistory [localHistorySize]uint16 // 10-bit shift registers.
	localPred    [localPredSize]uint8     // 3-bit saturating counters.
	globalPred   [globalSize]uint8        // 2-bit saturating counters.
	choicePred   [globalSize]uint8        // 2-bit saturating counters.
	globalPath   uint16                   // 12-bit global path history.
}

// NewPredictor returns a zero-initialized tournament predictor.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Prediction is the bundle of intermediate results
// AXP_Branch_Prediction returns: the taken/not-taken verdicts of each
// sub-predictor plus the final combined verdict, all of which must be
// retained until retirement for training.
type Prediction struct {
	Taken       bool
	LocalTaken  bool
	GlobalTaken bool
	Choice      bool
}

// Predict implements AXP_Branch_Prediction (spec.md §4.B step 1-5).
func (p *Predictor) Predict(vpc VPC) Prediction {
	lclHistIdx := vpcLocalIndex(vpc)
	lclPredIdx := int(p.localHistory[lclHistIdx]) & (localPredSize - 1)

	localTaken := p.localPred[lclPredIdx] >= local3BitTakenThreshold
	globalTaken := p.globalPred[p.globalPath] >= twoBitTakenThreshold
	choice := p.choicePred[p.globalPath] >= twoBitTakenThreshold

	var taken bool
	if localTaken != globalTaken {
		if choice {
			taken = globalTaken
		} else {
			taken = localTaken
		}
	} else {
		taken = localTaken
	}

	return Prediction{Taken: taken, LocalTaken: localTaken, GlobalTaken: globalTaken, Choice: choice}
}

// Train implements AXP_Branch_Direction: it is invoked at branch
// retirement with the actual outcome, and updates the choice, local,
// and global predictors plus both history registers.
func (p *Predictor) Train(vpc VPC, taken, localTaken, globalTaken bool) {
	lclHistIdx := vpcLocalIndex(vpc)
	lclPredIdx := int(p.localHistory[lclHistIdx]) & (localPredSize - 1)

	switch {
	case taken == localTaken && taken != globalTaken:
		// Local predictor agreed, global did not: favor local.
		decr2(&p.choicePred[p.globalPath])
	case taken != localTaken && taken == globalTaken:
		// Global predictor agreed, local did not: favor global.
		incr2(&p.choicePred[p.globalPath])
		// If both agree or both disagree, the choice predictor is left alone.
	}

	if taken {
		incr3(&p.localPred[lclPredIdx])
		incr2(&p.globalPred[p.globalPath])
		p.localHistory[lclHistIdx] = shiftIn(p.localHistory[lclHistIdx], localHistoryBits, true)
		p.globalPath = shiftIn(p.globalPath, globalBits, true)
	} else {
		decr3(&p.localPred[lclPredIdx])
		decr2(&p.globalPred[p.globalPath])
		p.localHistory[lclHistIdx] = shiftIn(p.localHistory[lclHistIdx], localHistoryBits, false)
		p.globalPath = shiftIn(p.globalPath, globalBits, false)
	}
}

func shiftIn(reg uint16, bits int, bit bool) uint16 {
	mask := uint16((1 << bits) - 1)
	reg = (reg << 1) & mask
	if bit {
		reg |= 1
	}
	return reg
}

func incr3(c *uint8) {
	if *c < local3BitMax {
		*c++
	}
}

func decr3(c *uint8) {
	if *c > local3BitMin {
		*c--
	}
}

func incr2(c *uint8) {
	if *c < twoBitMax {
		*c++
	}
}

func decr2(c *uint8) {
	if *c > twoBitMin {
		*c--
	}
}
