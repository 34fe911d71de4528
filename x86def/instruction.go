package x86def

import (
	"fmt"
	"strings"
)

// Instruction is one instruction definition, or one concrete variant of
// it after expansion.
type Instruction struct {
	Name       string
	Operands   []Operand
	Opcodes    []Opcode
	Attributes Attributes

	RequiredPrefixes []Prefix
	OptionalPrefixes []Prefix

	Rex Rex
}

// Clone returns a deep copy of the instruction.
func (inst *Instruction) Clone() *Instruction {
	ret := &Instruction{
		Name:             inst.Name,
		Operands:         append([]Operand(nil), inst.Operands...),
		Opcodes:          append([]Opcode(nil), inst.Opcodes...),
		Attributes:       inst.Attributes.Clone(),
		RequiredPrefixes: append([]Prefix(nil), inst.RequiredPrefixes...),
		OptionalPrefixes: append([]Prefix(nil), inst.OptionalPrefixes...),
		Rex:              inst.Rex,
	}
	return ret
}

// HasAttribute reports whether the instruction carries the attribute a.
func (inst *Instruction) HasAttribute(a Attribute) bool {
	return inst.Attributes.Has(a)
}

// IsVexOrXop reports whether the opcode starts with a three-byte VEX or
// XOP prefix.
func (inst *Instruction) IsVexOrXop() bool {
	if len(inst.Opcodes) < 3 {
		return false
	}
	if !inst.Opcodes[0].IsByte(0xc4) && !inst.Opcodes[0].IsByte(0x8f) {
		return false
	}
	return inst.Opcodes[1].Kind == OpcodeVexMap && inst.Opcodes[2].Kind == OpcodeVexFields
}

// IsXop reports whether the instruction uses the XOP rather than the VEX
// escape byte.
func (inst *Instruction) IsXop() bool {
	return inst.IsVexOrXop() && inst.Opcodes[0].IsByte(0x8f)
}

// VexMap returns the map selector of a VEX/XOP instruction.
func (inst *Instruction) VexMap() uint8 {
	return inst.Opcodes[1].Value
}

// VexFields returns the symbolic fields of a VEX/XOP instruction.
func (inst *Instruction) VexFields() VexFields {
	return inst.Opcodes[2].Vex
}

// OpcodeBody returns the opcode tokens that follow the VEX/XOP prefix,
// or all of them for other instructions.
func (inst *Instruction) OpcodeBody() []Opcode {
	if inst.IsVexOrXop() {
		return inst.Opcodes[3:]
	}
	return inst.Opcodes
}

// MainOpcodeEnd returns the index just past the opcode's main part, which
// is everything before the first /N or / marker.
func (inst *Instruction) MainOpcodeEnd() int {
	for i, op := range inst.Opcodes {
		if op.Kind == OpcodeModRMExtension || op.Kind == OpcodeImmediateOpcode {
			return i
		}
	}
	return len(inst.Opcodes)
}

// ModRMExtension returns the /N digit, if the opcode has one.
func (inst *Instruction) ModRMExtension() (uint8, bool) {
	for _, op := range inst.Opcodes {
		if op.Kind == OpcodeModRMExtension {
			return op.Value, true
		}
	}
	return 0, false
}

// HasModRM reports whether the encoding includes a ModRM byte.
func (inst *Instruction) HasModRM() bool {
	for _, op := range inst.Opcodes {
		if op.Kind == OpcodeModRMExtension || op.Kind == OpcodeImmediateOpcode {
			return true
		}
	}
	for _, op := range inst.Operands {
		if op.ResidesInModRM() {
			return true
		}
	}
	return false
}

// HasMemoryOperand reports whether one of the operands is in memory
// addressed through ModRM.
func (inst *Instruction) HasMemoryOperand() bool {
	for _, op := range inst.Operands {
		if op.Type == ArgMemory {
			return true
		}
	}
	return false
}

// SetVexL replaces the L field of a VEX/XOP instruction.
func (inst *Instruction) SetVexL(l byte) {
	inst.Opcodes[2].Vex.L = l
}

// ModeAllowed reports whether the instruction exists at the given bitness.
func (inst *Instruction) ModeAllowed(bitness int) bool {
	switch bitness {
	case 32:
		return !inst.HasAttribute(AttrAMD64)
	case 64:
		return !inst.HasAttribute(AttrIA32)
	}
	return false
}

// String renders the instruction in the definition-file syntax, with
// collected prefixes and REX state appended for inspection.
func (inst *Instruction) String() string {
	var b strings.Builder
	if strings.ContainsAny(inst.Name, " \t") {
		fmt.Fprintf(&b, "%q", inst.Name)
	} else {
		b.WriteString(inst.Name)
	}
	for _, op := range inst.Operands {
		b.WriteByte(' ')
		b.WriteString(op.String())
	}
	b.WriteString(ColumnSeparator)
	for i, op := range inst.Opcodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(op.String())
	}
	if len(inst.Attributes) > 0 {
		b.WriteString(ColumnSeparator)
		b.WriteString(inst.Attributes.String())
	}
	if len(inst.RequiredPrefixes) > 0 {
		fmt.Fprintf(&b, " required=%v", inst.RequiredPrefixes)
	}
	if len(inst.OptionalPrefixes) > 0 {
		fmt.Fprintf(&b, " optional=%v", inst.OptionalPrefixes)
	}
	fmt.Fprintf(&b, " rex=%s", inst.Rex)
	return b.String()
}

// CollectPrefixes moves the legacy prefixes an instruction permits or
// requires out of its attributes and the front of its opcode.
func CollectPrefixes(inst *Instruction) error {
	for _, ap := range optionalPrefixAttributes {
		if inst.HasAttribute(ap.Attr) {
			inst.OptionalPrefixes = append(inst.OptionalPrefixes, ap.Prefix)
		}
	}

	for len(inst.Opcodes) > 0 {
		first := inst.Opcodes[0]
		if first.Kind == OpcodeRexW {
			inst.Rex.W = RexSet
			inst.Opcodes = inst.Opcodes[1:]
			continue
		}

		prefix, ok := requiredPrefix(first)
		if !ok {
			break
		}
		if HasPrefix(inst.RequiredPrefixes, prefix) {
			// Long nops repeat 0x66 as padding, and the repeat belongs to
			// the opcode itself.
			if !strings.Contains(inst.Name, "nopw") {
				return fmt.Errorf("%s: prefix %s repeated", inst.Name, prefix)
			}
			break
		}
		inst.RequiredPrefixes = append(inst.RequiredPrefixes, prefix)
		inst.Opcodes = inst.Opcodes[1:]
	}

	if len(inst.Opcodes) == 0 {
		return fmt.Errorf("%s: %w: no opcode bytes after prefixes", inst.Name, ErrInvalidOpcode)
	}
	return nil
}
