/*
 * axp264ibox - Instruction decode and architectural register extraction.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_Decode_Rename, AXP_DecodeOperType, and the
 * AXP_RegisterDecodingOpcode{11,14,15_16,17,18,1c} family in
 * original_source/src/cpu/AXP_21264_Ibox.c. The register-mask
 * function-pointer table is replaced with a switch on opcode that
 * calls one regOpcodeNN function per special-cased opcode, per
 * spec.md §9's note against C-style dispatch tables.
 */

package ibox

// regField names which field of a raw instruction word supplies a
// decoded register: Ra/Rb/Rc for integer format fields, Fa/Fb/Fc for
// the aliased floating fields, or none at all.
type regField int

const (
	regNone regField = iota
	regRA
	regRB
	regRC
	regFA
	regFB
	regFC
)

// regMask is the {dest, src1, src2} register-field selection for one
// opcode, equivalent to the AXP_DEST_*/AXP_SRC1_*/AXP_SRC2_* bitmask
// in the original.
type regMask struct {
	dest, src1, src2 regField
}

// Word is a decomposed 32-bit Alpha instruction: every field a format
// might use, extracted up front so format-specific code never needs
// to re-mask the raw word.
type Word struct {
	Raw     uint32
	Opcode  uint8
	Ra, Rb, Rc uint8
	Function uint32 // Opr: bits[11:5]; otherwise bits[15:5]. Mfc/Pcd fields come from Raw.
	Disp     int32  // Mem: 16-bit signed; Bra/FPBra use dispBra().
	Literal  bool
	LitVal   uint8
}

// DecodeWord splits a raw 32-bit instruction into its fields. Field
// interpretation is format-dependent; callers use only the fields
// that apply to the format they already know.
func DecodeWord(raw uint32) Word {
	w := Word{Raw: raw}
	w.Opcode = uint8(raw >> 26)
	w.Ra = uint8((raw >> 21) & 0x1f)
	w.Rb = uint8((raw >> 16) & 0x1f)
	w.Rc = uint8(raw & 0x1f)
	w.Literal = (raw>>12)&1 != 0
	w.LitVal = uint8((raw >> 13) & 0xff)
	w.Function = (raw >> 5) & 0x7ff // FP 11-bit function field.
	if formatOf(w.Opcode) == FmtOpr {
		w.Function &= 0x7f // Opr 7-bit function field; bits [15:12] are literal/SBZ.
	}
	w.Disp = int32(int16(raw & 0xffff))
	return w
}

// dispBra extracts the 21-bit signed branch displacement.
func (w Word) dispBra() int32 {
	v := w.Raw & 0x1fffff
	if v&0x100000 != 0 {
		v |= ^uint32(0x1fffff)
	}
	return int32(v)
}

// palFunction extracts the 26-bit CALL_PAL function field.
func (w Word) palFunction() uint32 {
	return w.Raw & 0x3ffffff
}

func formatOf(opcode uint8) InstructionFormat {
	switch opcode {
	case 0x30, 0x34: // BR, BSR
		return FmtBra
	case 0x31, 0x35, 0x36, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f:
		return FmtFPBra
	case 0x14, 0x15, 0x16, 0x17:
		return FmtFP
	case 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27,
		0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f:
		return FmtMem
	case 0x1a:
		return FmtMbr
	case 0x18:
		return FmtMfc
	case 0x10, 0x11, 0x12, 0x13:
		return FmtOpr
	case 0x00:
		return FmtPcd
	case 0x19, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f:
		return FmtPAL
	default:
		return FmtRes
	}
}

// Opcodes that get special handling when format is FmtPAL.
const (
	opHWLD  = 0x1b
	opHWST  = 0x1f
	opHWMFPR = 0x19
	opHWMTPR = 0x1d
	opCALLPAL = 0x00
)

// AXP_FUNC_* constants needed by AXP_DecodeOperType, named for the
// function codes they select (original_source/src/cpu/AXP_21264_Ibox.c).
const (
	funcCMPBGE   = 0x0f
	funcAMASK    = 0x61
	funcIMPLVER  = 0x6c
	funcMTFPCR   = 0x024
	funcMFFPCR   = 0x025
)

func decodeOperType(opcode uint8, function uint32) OperType {
	switch opcode {
	case 0x10: // INTA
		if function == funcCMPBGE {
			return OpLogic
		}
		return OpArith
	case 0x11: // INTL
		if function == funcAMASK || function == funcIMPLVER {
			return OpOper
		}
		return OpLogic
	case 0x15: // FLTV
		switch function {
		case 0x0a5, 0x0a6, 0x0a7, 0x025, 0x026, 0x027:
			return OpLogic
		default:
			return OpArith
		}
	case 0x16: // FLTI
		if function&0x0f0 == 0x0a0 {
			return OpLogic
		}
		return OpArith
	case 0x17: // FLTL
		switch function {
		case funcMTFPCR:
			return OpLoad
		case funcMFFPCR:
			return OpStore
		default:
			return OpArith
		}
	case 0x18: // MISC
		switch function {
		case 0xc000, 0xe000, 0xf000:
			return OpLoad
		default:
			return OpStore
		}
	}
	return OpOther
}

// classifyByOpcode assigns the broad operation type by opcode family.
// It returns OpOther for the opcodes whose type depends on the
// function field too; Decode then refines those with decodeOperType.
func classifyByOpcode(opcode uint8, format InstructionFormat) OperType {
	switch format {
	case FmtBra, FmtFPBra, FmtMbr:
		return OpBranch
	case FmtMem:
		switch {
		case opcode >= 0x20 && opcode <= 0x2f:
			if opcode >= 0x28 {
				return OpStore
			}
			return OpLoad
		case opcode >= 0x08 && opcode <= 0x0f:
			if opcode >= 0x0c {
				return OpStore
			}
			return OpLoad
		}
	}
	switch opcode {
	case 0x12, 0x13, 0x14:
		return OpArith
	}
	return OpOther
}

// regOpcode11 is AXP_RegisterDecodingOpcode11.
func regOpcode11(w Word) regMask {
	switch w.Function {
	case funcAMASK:
		return regMask{dest: regRC, src1: regRB}
	case funcIMPLVER:
		return regMask{dest: regRC}
	default:
		return regMask{dest: regRC, src1: regRA, src2: regRB}
	}
}

// regOpcode14 is AXP_RegisterDecodingOpcode14.
func regOpcode14(w Word) regMask {
	m := regMask{dest: regFC}
	if w.Function&0x00f != 0x004 {
		m.src1 = regFB
	} else {
		m.src1 = regRB
	}
	return m
}

// regOpcode1516 is AXP_RegisterDecodingOpcode15_16.
func regOpcode1516(w Word) regMask {
	m := regMask{dest: regFC}
	if w.Function&0x008 == 0 {
		m.src1, m.src2 = regFA, regFB
	} else {
		m.src1 = regFB
	}
	return m
}

// regOpcode17 is AXP_RegisterDecodingOpcode17.
func regOpcode17(w Word) regMask {
	switch w.Function {
	case 0x010, 0x030, 0x130, 0x530:
		return regMask{dest: regFC, src1: regFB}
	case 0x024:
		return regMask{dest: regFA}
	case 0x025:
		return regMask{src1: regFA}
	default:
		return regMask{dest: regFC, src1: regFA, src2: regFB}
	}
}

// regOpcode18 is AXP_RegisterDecodingOpcode18. Opcode 0x18 (MISC) packs
// its selector into the full 16-bit displacement field, not the 11-bit
// Opr/FP function field.
func regOpcode18(w Word) regMask {
	fn := w.Raw & 0xffff
	if fn&0x8000 == 0 {
		return regMask{}
	}
	switch fn {
	case 0xc000, 0xe000, 0xf000:
		return regMask{dest: regRA}
	default:
		return regMask{src1: regRB}
	}
}

// regOpcode1c is AXP_RegisterDecodingOpcode1c.
func regOpcode1c(w Word) regMask {
	m := regMask{dest: regRC}
	switch w.Function {
	case 0x31, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f:
		m.src1, m.src2 = regRA, regRB
	case 0x70, 0x78:
		m.src1 = regFA
	default:
		m.src1 = regRB
	}
	return m
}

// registerMask returns the {dest,src1,src2} field selection for an
// instruction, dispatching the handful of opcodes whose registers
// depend on the function field to the matching closure.
func registerMask(opcode uint8, format InstructionFormat, w Word) regMask {
	switch opcode {
	case 0x11:
		return regOpcode11(w)
	case 0x14:
		return regOpcode14(w)
	case 0x15, 0x16:
		return regOpcode1516(w)
	case 0x17:
		return regOpcode17(w)
	case 0x18:
		return regOpcode18(w)
	case 0x1c:
		return regOpcode1c(w)
	}
	switch format {
	case FmtOpr:
		return regMask{dest: regRC, src1: regRA, src2: regRB}
	case FmtFP:
		return regMask{dest: regFC, src1: regFA, src2: regFB}
	case FmtMem:
		return regMask{dest: regRA, src1: regRB}
	case FmtBra, FmtFPBra:
		return regMask{dest: regRA}
	case FmtMbr:
		return regMask{dest: regRA, src1: regRB}
	default:
		return regMask{}
	}
}

func fieldValue(w Word, f regField) (reg uint8, isFloat bool) {
	switch f {
	case regRA:
		return w.Ra, false
	case regRB:
		return w.Rb, false
	case regRC:
		return w.Rc, false
	case regFA:
		return w.Ra, true
	case regFB:
		return w.Rb, true
	case regFC:
		return w.Rc, true
	default:
		return AXPUnmappedReg, false
	}
}

// palShadowIndex maps the integer registers replaced by PALshadow
// copies while executing in PAL mode (spec.md §4.D) onto the compact
// 32-39 slot range the integer rename map reserves for them
// (intArchSlots in rename.go). Floating point registers have no
// shadow set.
var palShadowIndex = map[uint8]uint8{
	8: 32, 9: 33, 10: 34, 11: 35, 12: 36, 13: 37, 14: 38, 25: 39,
}

// palShadow remaps an integer architectural register number to its
// PALshadow alias when running in PAL mode.
func palShadow(reg uint8, pal bool) uint8 {
	if !pal {
		return reg
	}
	if idx, ok := palShadowIndex[reg]; ok {
		return idx
	}
	return reg
}

// Decode turns a raw instruction word plus its VPC into a
// DecodedInstruction with format, operation type, pipeline class, and
// architectural register fields filled in, PAL-shadow substitution
// applied (spec.md §4.D steps 1-4 and 6). Register renaming (step 5)
// happens separately in Rename.
func Decode(id uint8, vpc VPC, raw uint32, callPalR23 bool) DecodedInstruction {
	w := DecodeWord(raw)
	format := formatOf(w.Opcode)

	d := DecodedInstruction{
		ID:     id,
		Format: format,
		Opcode: w.Opcode,
		VPC:    vpc,
	}

	switch format {
	case FmtBra, FmtFPBra:
		d.Disp = w.dispBra()
	case FmtFP:
		d.Function = w.Function
	case FmtMem, FmtMbr:
		d.Disp = w.Disp
	case FmtMfc:
		d.Function = uint32(w.Raw & 0xffff)
	case FmtOpr:
		d.Function = w.Function
	case FmtPcd:
		d.Function = w.palFunction()
	}

	d.OpType = classifyByOpcode(w.Opcode, format)
	if d.OpType == OpOther && format != FmtRes {
		fn := d.Function
		if format == FmtPAL && (w.Opcode == opHWMFPR || w.Opcode == opHWMTPR) {
			fn = uint32((w.Raw >> 16) & 0xffff) // HW_MFPR/HW_MTPR index field doubles as function.
			d.Function = fn                     // IPR index read by RetireHWMFPR/RetireHWMTPR.
		}
		d.OpType = decodeOperType(w.Opcode, fn)
	}

	mask := registerMask(w.Opcode, format, w)
	destReg, destFloat := fieldValue(w, mask.dest)
	src1Reg, src1Float := fieldValue(w, mask.src1)
	src2Reg, src2Float := fieldValue(w, mask.src2)

	if mask.dest == regNone {
		if w.Opcode == opCALLPAL {
			if callPalR23 {
				destReg = 23
			} else {
				destReg = 27
			}
		} else {
			destReg = AXPUnmappedReg
		}
	}
	if mask.src1 == regNone {
		src1Reg = AXPUnmappedReg
	}
	if mask.src2 == regNone {
		src2Reg = AXPUnmappedReg
	}

	callingPAL := vpc.Pal() || format == FmtPcd
	if !destFloat {
		destReg = palShadow(destReg, callingPAL)
	}
	if !src1Float {
		src1Reg = palShadow(src1Reg, callingPAL)
	}
	if !src2Float {
		src2Reg = palShadow(src2Reg, callingPAL)
	}

	d.ADest, d.DestFloat = destReg, destFloat
	d.ASrc1, d.Src1Float = src1Reg, src1Float
	d.ASrc2, d.Src2Float = src2Reg, src2Float

	d.Pipeline = classifyPipeline(w.Opcode, d.Function, format)
	return d
}

// classifyPipeline assigns the functional-unit pipe an instruction
// will issue to (AXP_InstructionPipeline), recorded in
// DecodedInstruction.Pipeline. IQ vs FQ routing does not read it:
// enqueueExec routes by the operands' floating-point flags.
func classifyPipeline(opcode uint8, function uint32, format InstructionFormat) PipelineClass {
	switch format {
	case FmtFP:
		if opcode == 0x14 || opcode == 0x17 {
			return PipeFM
		}
		return PipeFA
	case FmtMem:
		if opcode >= 0x20 {
			return PipeL1
		}
		return PipeL0
	case FmtBra, FmtFPBra, FmtMbr:
		return PipeU0
	default:
		return PipeU1
	}
}
