package x86def

import (
	"fmt"
	"strings"
)

// ColumnSeparator separates the name/operands, opcode and attribute
// columns of a definition record.
const ColumnSeparator = ", "

// ParseInstruction parses one definition record, which has the form
//
//	name operands..., opcode tokens...[, attributes...]
//
// The name may be quoted to include spaces.
func ParseInstruction(record string) (*Instruction, error) {
	fields := strings.Split(record, ColumnSeparator)
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("%w: got %d, want 2 or 3", ErrFieldCount, len(fields))
	}

	name, operandTokens, err := splitNameAndOperands(fields[0])
	if err != nil {
		return nil, err
	}

	inst := &Instruction{
		Name:       name,
		Attributes: make(Attributes),
		Rex:        Rex{W: RexClear},
	}

	for i, token := range operandTokens {
		op, err := ParseOperand(token, defaultReadWrite(i, len(operandTokens)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		inst.Operands = append(inst.Operands, op)
	}

	memory := 0
	for _, op := range inst.Operands {
		if op.Type == ArgMemory {
			memory++
		}
	}
	if memory > 1 {
		return nil, fmt.Errorf("%s: %w: more than one memory operand", name, ErrInvalidOperand)
	}

	for _, token := range strings.Fields(fields[1]) {
		op, err := ParseOpcode(token)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		inst.Opcodes = append(inst.Opcodes, op)
	}
	if len(inst.Opcodes) == 0 {
		return nil, fmt.Errorf("%s: %w: empty opcode", name, ErrInvalidOpcode)
	}

	if len(fields) == 3 {
		for _, token := range strings.Fields(fields[2]) {
			attr, err := ParseAttribute(token)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			inst.Attributes.Add(attr)
		}
	}

	return inst, nil
}

func splitNameAndOperands(field string) (name string, operands []string, err error) {
	field = strings.TrimSpace(field)
	if strings.HasPrefix(field, `"`) {
		end := strings.IndexByte(field[1:], '"')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated quoted name in %q", field)
		}
		name = field[1 : end+1]
		return name, strings.Fields(field[end+2:]), nil
	}

	tokens := strings.Fields(field)
	if len(tokens) == 0 {
		return "", nil, fmt.Errorf("missing instruction name")
	}
	return tokens[0], tokens[1:], nil
}

// defaultReadWrite returns the access mode of an operand without an
// explicit marker: the last operand is the destination, which is also a
// source for one- and two-operand instructions.
func defaultReadWrite(i, n int) ReadWriteMode {
	if i != n-1 {
		return Read
	}
	if n <= 2 {
		return ReadWrite
	}
	return Write
}
