// Package variants expands abstract instruction definitions into concrete
// variants, each with a single operand size, vector length and operand
// location.
package variants

import (
	"errors"

	"github.com/apparentlymart/x86-meta/x86def"
)

var (
	ErrAmbiguousOperands = errors.New("more than one register-or-memory operand")
	ErrLockRegister      = errors.New("lock prefix required on a register-or-memory operand")
	ErrNotVex            = errors.New("vector length split on an instruction without VEX/XOP prefix")
)

// Pass rewrites one instruction into one or more variants. A pass never
// modifies its input.
type Pass func(inst *x86def.Instruction) ([]*x86def.Instruction, error)

// Passes returns the expansion passes in the order they must run.
func Passes(bitness int) []Pass {
	return []Pass{
		SplitRegisterMemory,
		SplitByteNonByte,
		SplitOperandSize(bitness),
		SplitVectorLength,
	}
}

// Expand runs every pass over the instruction, feeding each variant
// produced by one pass into the next.
func Expand(bitness int, inst *x86def.Instruction) ([]*x86def.Instruction, error) {
	current := []*x86def.Instruction{inst}
	for _, pass := range Passes(bitness) {
		var next []*x86def.Instruction
		for _, in := range current {
			out, err := pass(in)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		current = next
	}
	return current, nil
}

// impliesOperandSize reports whether the AT&T form of the instruction
// already reveals the operand size through a general-purpose register
// operand, so no mnemonic suffix is needed.
func impliesOperandSize(inst *x86def.Instruction) bool {
	for _, op := range inst.Operands {
		if op.Type.IsGeneralRegister() && !op.Implicit {
			return true
		}
	}
	return false
}

// hasSuffix reports whether the definition already chose a mnemonic suffix.
func hasSuffix(inst *x86def.Instruction) bool {
	for _, a := range []x86def.Attribute{
		x86def.AttrSuffixB, x86def.AttrSuffixW, x86def.AttrSuffixL,
		x86def.AttrSuffixQ, x86def.AttrSuffixX, x86def.AttrSuffixY,
	} {
		if inst.HasAttribute(a) {
			return true
		}
	}
	return false
}
