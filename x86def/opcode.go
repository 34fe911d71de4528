package x86def

import (
	"fmt"
	"regexp"
	"strconv"
)

type OpcodeKind uint8

const (
	OpcodeByte             OpcodeKind = iota // a literal byte such as 0x0f
	OpcodeData16                             // operand-size prefix folded into the opcode
	OpcodeRexW                               // REX.W folded into the opcode
	OpcodeModRMExtension                     // /N: ModRM.reg holds an opcode extension
	OpcodeImmediateOpcode                    // /: the final opcode byte follows ModRM (3DNow!)
	OpcodeVexMap                             // RXB.mmmmm: second byte of a VEX/XOP prefix
	OpcodeVexFields                          // W.vvvv.L.pp: third byte of a VEX/XOP prefix
)

// Opcode is one token of an instruction's opcode column.
type Opcode struct {
	Kind OpcodeKind

	// Value holds the byte for OpcodeByte, the extension digit for
	// OpcodeModRMExtension and the map selector for OpcodeVexMap.
	Value uint8

	Vex VexFields
}

// VexFields are the symbolic fields of the last VEX/XOP prefix byte.
type VexFields struct {
	W    byte   // 'W' (from REX.W state), '0', '1' or 'x'
	VVVV string // "src", "src1", "dest", "cntl" or "1111"
	L    byte   // 'L' (split by vector length), 'x', '0' or '1'
	PP   uint8
}

// UsesVVVV reports whether VEX.vvvv encodes an operand.
func (f VexFields) UsesVVVV() bool {
	return f.VVVV != "1111"
}

var (
	opcodeBytePattern      = regexp.MustCompile(`^0x[0-9a-fA-F]{2}$`)
	opcodeExtensionPattern = regexp.MustCompile(`^/[0-7]$`)
	vexMapHexPattern       = regexp.MustCompile(`^RXB\.([01][0-9a-fA-F])$`)
	vexMapBinaryPattern    = regexp.MustCompile(`^RXB\.([01]{5})$`)
	vexFieldsPattern       = regexp.MustCompile(`^([W01x])\.(src|src1|dest|cntl|1111)\.([Lx01])\.([01]{2})$`)
)

// ParseOpcode parses one token of the opcode column.
func ParseOpcode(token string) (Opcode, error) {
	switch {
	case token == "data16":
		return Opcode{Kind: OpcodeData16}, nil
	case token == "rexw":
		return Opcode{Kind: OpcodeRexW}, nil
	case token == "/":
		return Opcode{Kind: OpcodeImmediateOpcode}, nil
	case opcodeBytePattern.MatchString(token):
		v, err := strconv.ParseUint(token[2:], 16, 8)
		if err != nil {
			return Opcode{}, fmt.Errorf("%w %q: %v", ErrInvalidOpcode, token, err)
		}
		return Opcode{Kind: OpcodeByte, Value: uint8(v)}, nil
	case opcodeExtensionPattern.MatchString(token):
		return Opcode{Kind: OpcodeModRMExtension, Value: token[1] - '0'}, nil
	}

	if m := vexMapHexPattern.FindStringSubmatch(token); m != nil {
		v, err := strconv.ParseUint(m[1], 16, 8)
		if err != nil {
			return Opcode{}, fmt.Errorf("%w %q: %v", ErrInvalidOpcode, token, err)
		}
		return Opcode{Kind: OpcodeVexMap, Value: uint8(v)}, nil
	}
	if m := vexMapBinaryPattern.FindStringSubmatch(token); m != nil {
		v, err := strconv.ParseUint(m[1], 2, 8)
		if err != nil {
			return Opcode{}, fmt.Errorf("%w %q: %v", ErrInvalidOpcode, token, err)
		}
		return Opcode{Kind: OpcodeVexMap, Value: uint8(v)}, nil
	}
	if m := vexFieldsPattern.FindStringSubmatch(token); m != nil {
		pp, _ := strconv.ParseUint(m[4], 2, 8)
		return Opcode{Kind: OpcodeVexFields, Vex: VexFields{
			W:    m[1][0],
			VVVV: m[2],
			L:    m[3][0],
			PP:   uint8(pp),
		}}, nil
	}

	return Opcode{}, fmt.Errorf("%w %q", ErrInvalidOpcode, token)
}

// IsByte reports whether the token is the literal byte v.
func (o Opcode) IsByte(v uint8) bool {
	return o.Kind == OpcodeByte && o.Value == v
}

func (o Opcode) String() string {
	switch o.Kind {
	case OpcodeByte:
		return fmt.Sprintf("0x%02x", o.Value)
	case OpcodeData16:
		return "data16"
	case OpcodeRexW:
		return "rexw"
	case OpcodeModRMExtension:
		return fmt.Sprintf("/%d", o.Value)
	case OpcodeImmediateOpcode:
		return "/"
	case OpcodeVexMap:
		return fmt.Sprintf("RXB.%05b", o.Value)
	case OpcodeVexFields:
		return fmt.Sprintf("%c.%s.%c.%02b", o.Vex.W, o.Vex.VVVV, o.Vex.L, o.Vex.PP)
	}
	return "<invalid>"
}
