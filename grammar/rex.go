package grammar

import (
	"github.com/apparentlymart/x86-meta/x86def"
)

// resolveRex completes the REX state of a variant for one memory form
// (nil when the variant has no memory operand). W comes from the
// expansion passes; R, X and B are free exactly when they select one of
// the variant's registers.
func resolveRex(bitness int, inst *x86def.Instruction, mem *AddressMode) x86def.Rex {
	rex := x86def.Rex{W: inst.Rex.W}
	if bitness != 64 || inst.HasAttribute(x86def.AttrNoRex) {
		return rex
	}

	for _, op := range inst.Operands {
		if !rexExtensible(op.Type) {
			continue
		}
		switch op.Type {
		case x86def.ArgRegisterInReg, x86def.ArgXMMRegisterInReg, x86def.ArgControlRegisterInReg:
			rex.R = x86def.RexFree
		case x86def.ArgRegisterInRM, x86def.ArgXMMRegisterInRM, x86def.ArgRegisterInOpcode:
			rex.B = x86def.RexFree
		}
	}

	if mem != nil {
		if mem.XMatters {
			rex.X = x86def.RexFree
		}
		if mem.BMatters {
			rex.B = x86def.RexFree
		}
	}

	return rex
}

// rexExtensible reports whether REX (or VEX) extension bits select among
// sixteen registers of this kind rather than eight.
func rexExtensible(t x86def.ArgType) bool {
	switch t {
	case x86def.ArgRegisterInReg, x86def.ArgRegisterInRM, x86def.ArgRegisterInOpcode,
		x86def.ArgXMMRegisterInReg, x86def.ArgXMMRegisterInRM,
		x86def.ArgControlRegisterInReg:
		return true
	}
	return false
}
