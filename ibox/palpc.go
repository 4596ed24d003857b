/*
 * axp264ibox - PAL PC composition.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_21264_GetPALFuncVPC in
 * original_source/src/cpu/AXP_21264_Ibox.c: two bit layouts (21164 vs
 * 21264), selected by majorType, reimplemented with explicit
 * shift/mask per spec.md §9's design note.
 */

package ibox

// MajorType selects which PALcode PC bit layout applies.
type MajorType int

const (
	EV6 MajorType = iota // 21264 and later: highPC is bits [63:15].
	EV56MajorType
)

const (
	palFuncLowMask  = 0x3f // func_5_0: bits [5:0]
	palFuncHighBit  = 0x80 // func_7: bit 7
	palFuncHighDest = 1 << 6
)

// PALPCBits composes the 64-bit PC used to enter PALcode for the given
// function code, given the high bits of PAL_BASE and the CPU's major
// type. This mirrors AXP_21264_GetPALFuncVPC bit-for-bit:
//
//	21264: palMode(1) mbz_1(5) func_5_0(6) func_7(1) mbo(1) mbz_2(1) highPC(49)
//	21164: palMode(1) mbz(5)   func_5_0(6) func_7(1) mbo(1)          highPC(50)
func PALPCBits(major MajorType, palBaseHighPC uint64, function uint32) VPC {
	func50 := uint64(function) & palFuncLowMask
	func7 := uint64(0)
	if function&palFuncHighBit != 0 {
		func7 = 1
	}

	var pc uint64
	switch major {
	case EV6:
		// bit 0 palMode, bits [5:1] mbz_1, bits [11:6] func_5_0,
		// bit 12 func_7, bit 13 mbo, bit 14 mbz_2, bits [63:15] highPC.
		pc |= 1 // palMode
		pc |= func50 << 6
		pc |= func7 << 12
		pc |= 1 << 13 // mbo
		pc |= (palBaseHighPC & ((1 << 49) - 1)) << 15
	default:
		// 21164: bit 0 palMode, bits [5:1] mbz, bits [11:6] func_5_0,
		// bit 12 func_7, bit 13 mbo, bits [63:14] highPC.
		pc |= 1
		pc |= func50 << 6
		pc |= func7 << 12
		pc |= 1 << 13
		pc |= (palBaseHighPC & ((1 << 50) - 1)) << 14
	}
	return VPC(pc)
}

// DecomposePALPC recovers (highPC, function) from a VPC produced by
// PALPCBits, used by the round-trip property in spec.md §8.
func DecomposePALPC(major MajorType, pc VPC) (highPC uint64, function uint32) {
	raw := uint64(pc)
	func50 := (raw >> 6) & palFuncLowMask
	func7 := (raw >> 12) & 1
	function = uint32(func50)
	if func7 != 0 {
		function |= palFuncHighBit
	}
	switch major {
	case EV6:
		highPC = raw >> 15
	default:
		highPC = raw >> 14
	}
	return highPC, function
}
