package variants

import (
	"fmt"

	"github.com/apparentlymart/x86-meta/x86def"
)

// SplitRegisterMemory turns an instruction with a register-or-memory
// operand into a register variant and a memory variant.
func SplitRegisterMemory(inst *x86def.Instruction) ([]*x86def.Instruction, error) {
	ambiguous := -1
	for i, op := range inst.Operands {
		if !op.Type.IsAmbiguous() {
			continue
		}
		if ambiguous >= 0 {
			return nil, fmt.Errorf("%s: %w", inst.Name, ErrAmbiguousOperands)
		}
		ambiguous = i
	}
	if ambiguous < 0 {
		return []*x86def.Instruction{inst}, nil
	}

	// A lock prefix only makes sense with a memory destination, so an
	// unconditional one cannot apply to the register variant.
	if x86def.HasPrefix(inst.RequiredPrefixes, x86def.PrefixF0) {
		return nil, fmt.Errorf("%s: %w", inst.Name, ErrLockRegister)
	}

	regType, memType, _ := inst.Operands[ambiguous].Type.Split()

	reg := inst.Clone()
	reg.Operands[ambiguous].Type = regType
	reg.OptionalPrefixes = removePrefix(reg.OptionalPrefixes, x86def.PrefixLock)
	reg.Attributes.Remove(x86def.AttrLock)

	mem := inst.Clone()
	mem.Operands[ambiguous].Type = memType

	return []*x86def.Instruction{reg, mem}, nil
}

// SplitByteNonByte gives unsized operands a byte size in one variant and a
// word-or-larger size in the other. By x86 convention the non-byte form
// of such an opcode is the byte form with its low bit set.
func SplitByteNonByte(inst *x86def.Instruction) ([]*x86def.Instruction, error) {
	affected := false
	for _, op := range inst.Operands {
		if op.Size == x86def.SizeUnset {
			affected = true
			break
		}
	}
	if !affected {
		return []*x86def.Instruction{inst}, nil
	}

	byteInst := inst.Clone()
	wideInst := inst.Clone()
	for i, op := range inst.Operands {
		if op.Size != x86def.SizeUnset {
			continue
		}
		byteInst.Operands[i].Size = x86def.SizeByte
		if op.Type == x86def.ArgImmediate {
			wideInst.Operands[i].Size = x86def.SizeZ
		} else {
			wideInst.Operands[i].Size = x86def.SizeV
		}
	}

	last := -1
	for i := 0; i < wideInst.MainOpcodeEnd(); i++ {
		if wideInst.Opcodes[i].Kind == x86def.OpcodeByte {
			last = i
		}
	}
	if last < 0 {
		return nil, fmt.Errorf("%s: %w: no opcode byte to widen", inst.Name, x86def.ErrInvalidOpcode)
	}
	wideInst.Opcodes[last].Value |= 1

	if !impliesOperandSize(byteInst) && !hasSuffix(byteInst) {
		byteInst.Attributes.Add(x86def.AttrSuffixB)
	}

	return []*x86def.Instruction{byteInst, wideInst}, nil
}

var operandSizes = map[x86def.Size][3]x86def.Size{
	x86def.SizeZ: {x86def.SizeWord, x86def.SizeDword, x86def.SizeDword},
	x86def.SizeY: {x86def.SizeDword, x86def.SizeDword, x86def.SizeQword},
	x86def.SizeV: {x86def.SizeWord, x86def.SizeDword, x86def.SizeQword},
}

// SplitOperandSize resolves the z, y and v operand sizes into 16-, 32- and
// 64-bit variants, as far as they exist at the given bitness.
func SplitOperandSize(bitness int) Pass {
	return func(inst *x86def.Instruction) ([]*x86def.Instruction, error) {
		var hasZ, hasY, hasV bool
		for _, op := range inst.Operands {
			switch op.Size {
			case x86def.SizeZ:
				hasZ = true
			case x86def.SizeY:
				hasY = true
			case x86def.SizeV:
				hasV = true
			}
		}

		if !hasZ && !hasY && !hasV {
			ret := inst.Clone()
			// REX.W changes nothing here, unless the definition pins it or
			// a data16 prefix would be overridden by it.
			if ret.Rex.W != x86def.RexSet &&
				!ret.HasAttribute(x86def.AttrNoRex) &&
				!ret.HasAttribute(x86def.AttrNoRexW) &&
				!x86def.HasPrefix(ret.RequiredPrefixes, x86def.PrefixData16) {
				ret.Rex.W = x86def.RexFree
			}
			return []*x86def.Instruction{ret}, nil
		}

		var ret []*x86def.Instruction
		showSuffix := !impliesOperandSize(inst) && !hasSuffix(inst)

		resize := func(column int) *x86def.Instruction {
			v := inst.Clone()
			for i, op := range v.Operands {
				if sizes, ok := operandSizes[op.Size]; ok {
					v.Operands[i].Size = sizes[column]
				}
			}
			return v
		}

		if hasZ || hasV {
			v := resize(0)
			v.RequiredPrefixes = append(v.RequiredPrefixes, x86def.PrefixData16)
			if showSuffix {
				v.Attributes.Add(x86def.AttrSuffixW)
			}
			ret = append(ret, v)
		}

		v := resize(1)
		v.Rex.W = x86def.RexClear
		if showSuffix {
			v.Attributes.Add(x86def.AttrSuffixL)
		}
		ret = append(ret, v)

		if bitness == 64 && (hasY || hasV) && !inst.HasAttribute(x86def.AttrNoRexW) {
			v := resize(2)
			v.Rex.W = x86def.RexSet
			if showSuffix {
				v.Attributes.Add(x86def.AttrSuffixQ)
			}
			ret = append(ret, v)
		}

		return ret, nil
	}
}

// featurePairs maps a combined CPU feature attribute to the features
// required by its 128-bit and 256-bit forms.
var featurePairs = map[x86def.Attribute][2]x86def.Attribute{
	x86def.AttrFeatureAVXAVX2: {x86def.CPUFeature("AVX"), x86def.CPUFeature("AVX2")},
}

// SplitVectorLength resolves VEX.L-ambiguous operand sizes into xmm and
// ymm variants.
func SplitVectorLength(inst *x86def.Instruction) ([]*x86def.Instruction, error) {
	affected, bare := false, false
	for _, op := range inst.Operands {
		if op.Size.IsVectorAmbiguous() {
			affected = true
			if op.Size == x86def.SizeX {
				bare = true
			}
		}
	}
	if !affected {
		return []*x86def.Instruction{inst}, nil
	}

	if !inst.IsVexOrXop() {
		return nil, fmt.Errorf("%s: %w", inst.Name, ErrNotVex)
	}
	if l := inst.VexFields().L; l != 'L' {
		return nil, fmt.Errorf("%s: %w: VEX.L is fixed to %c", inst.Name, ErrNotVex, l)
	}

	xmm := inst.Clone()
	ymm := inst.Clone()
	for i, op := range inst.Operands {
		x, y, ok := op.Size.VectorSplit()
		if !ok {
			continue
		}
		xmm.Operands[i].Size = x
		ymm.Operands[i].Size = y
	}
	xmm.SetVexL('0')
	ymm.SetVexL('1')

	for pair, features := range featurePairs {
		if !inst.HasAttribute(pair) {
			continue
		}
		xmm.Attributes.Remove(pair)
		xmm.Attributes.Add(features[0])
		ymm.Attributes.Remove(pair)
		ymm.Attributes.Add(features[1])
	}

	if bare && !hasSuffix(inst) {
		xmm.Attributes.Add(x86def.AttrSuffixX)
		ymm.Attributes.Add(x86def.AttrSuffixY)
	}

	return []*x86def.Instruction{xmm, ymm}, nil
}

func removePrefix(ps []x86def.Prefix, p x86def.Prefix) []x86def.Prefix {
	var ret []x86def.Prefix
	for _, have := range ps {
		if have != p {
			ret = append(ret, have)
		}
	}
	return ret
}
