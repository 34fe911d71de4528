package grammar

import (
	"fmt"
	"strings"
)

// bits8 is a literal byte in the grammar.
type bits8 uint8

func (v bits8) String() string {
	return fmt.Sprintf("0x%02x", uint8(v))
}

// bitPattern names a byte machine by its bit fields, most significant
// first, where each field is spelled with 0, 1 or x for "any", e.g.
// b_1_xxxx_0_01.
func bitPattern(fields ...string) string {
	return "b_" + strings.Join(fields, "_")
}

// registerAlternation lists the eight opcode bytes that encode a register
// in their low three bits.
func registerAlternation(base uint8) string {
	parts := make([]string, 8)
	for i := range parts {
		parts[i] = bits8(base | uint8(i)).String()
	}
	return "(" + strings.Join(parts, "|") + ")"
}
