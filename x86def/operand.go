package x86def

import (
	"fmt"
	"regexp"
	"strings"
)

// Operand is one operand of an instruction definition.
type Operand struct {
	ReadWrite ReadWriteMode
	Type      ArgType
	Size      Size
	Implicit  bool

	// Index is the operand's position among the operands that the grammar
	// reports to its consumer. It is only assigned on the copies made
	// during emission and is -1 otherwise.
	Index int
}

var operandPattern = func() *regexp.Regexp {
	var rw strings.Builder
	for _, m := range readWriteModes {
		rw.WriteString(regexp.QuoteMeta(m.String()))
	}
	codes := argTypeCodesLongestFirst()
	for i := range codes {
		codes[i] = regexp.QuoteMeta(codes[i])
	}
	sizes := sizesLongestFirst()
	for i := range sizes {
		sizes[i] = regexp.QuoteMeta(sizes[i])
	}
	return regexp.MustCompile(fmt.Sprintf(
		`^([%s]?)(%s)(%s|)(\*?)$`,
		rw.String(),
		strings.Join(codes, "|"),
		strings.Join(sizes, "|"),
	))
}()

// ParseOperand parses a single operand token such as "&Eb" or "=a*". The
// given mode is used when the token has no read/write marker.
func ParseOperand(token string, defaultRW ReadWriteMode) (Operand, error) {
	m := operandPattern.FindStringSubmatch(token)
	if m == nil {
		return Operand{}, fmt.Errorf("%w %q", ErrInvalidOperand, token)
	}

	op := Operand{
		ReadWrite: defaultRW,
		Type:      argTypesByCode[m[2]],
		Size:      Size(m[3]),
		Implicit:  m[4] == "*",
		Index:     -1,
	}
	if m[1] != "" {
		op.ReadWrite = ReadWriteMode(m[1][0])
	}
	return op, nil
}

func (o Operand) String() string {
	var b strings.Builder
	b.WriteString(o.ReadWrite.String())
	b.WriteString(o.Type.Code())
	b.WriteString(string(o.Size))
	if o.Implicit {
		b.WriteByte('*')
	}
	return b.String()
}

// ResidesInModRM reports whether the operand is encoded in the ModRM byte
// (and possibly a SIB byte and displacement).
func (o Operand) ResidesInModRM() bool {
	switch o.Type {
	case ArgRegisterInReg, ArgRegisterInRM,
		ArgSegmentRegisterInReg, ArgControlRegisterInReg, ArgDebugRegisterInReg,
		ArgMMXRegisterInReg, ArgMMXRegisterInRM,
		ArgXMMRegisterInReg, ArgXMMRegisterInRM,
		ArgMemory,
		ArgRegisterOrMemory, ArgMMXRegisterOrMemory, ArgXMMRegisterOrMemory:
		return true
	}
	return false
}

// Format classifies how the operand is presented to the grammar's
// consumer. Every (type, size) pair the definitions can produce after
// expansion must be covered; anything else is an error rather than a
// guess.
func (o Operand) Format(bitness int) (string, error) {
	switch o.Type {
	case ArgAccumulator, ArgCounter, ArgData,
		ArgRegisterInOpcode, ArgRegisterInReg, ArgRegisterInRM, ArgRegisterInVVVV,
		ArgImmediate, ArgSecondImmediate, ArgRelativeTarget:
		switch o.Size {
		case SizeByte:
			return "8bit", nil
		case SizeWord:
			return "16bit", nil
		case SizeDword:
			return "32bit", nil
		case SizeQword:
			return "64bit", nil
		case SizeReg:
			if o.Type == ArgImmediate || o.Type == ArgSecondImmediate || o.Type == ArgRelativeTarget {
				break
			}
			if bitness == 64 {
				return "64bit", nil
			}
			return "32bit", nil
		case Size2Bit:
			if o.Type == ArgImmediate {
				return "2bit", nil
			}
		}

	case ArgMemory, ArgAbsoluteDisp, ArgDsSi, ArgEsDi:
		return "memory", nil

	case ArgSegmentRegisterInReg:
		return "segreg", nil
	case ArgControlRegisterInReg:
		return "creg", nil
	case ArgDebugRegisterInReg:
		return "dreg", nil

	case ArgX87St, ArgX87InOpcode:
		if o.Size == SizeX87 {
			return "x87", nil
		}

	case ArgMMXRegisterInReg, ArgMMXRegisterInRM:
		if mmxSizes[o.Size] {
			return "mmx", nil
		}

	case ArgXMMRegisterInReg, ArgXMMRegisterInRM, ArgXMMRegisterInVVVV, ArgXMMRegisterInIs4:
		switch {
		case xmmSizes[o.Size]:
			return "xmm", nil
		case ymmSizes[o.Size]:
			return "ymm", nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFormatNotImplemented, o)
}
