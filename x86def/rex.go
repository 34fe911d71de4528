package x86def

import "strings"

// RexBit is the state of one REX (or VEX inverted-REX) bit.
type RexBit uint8

const (
	RexClear RexBit = iota // must be zero
	RexFree                // may be zero or one, selecting different operands
	RexSet                 // must be one
)

func (b RexBit) String() string {
	switch b {
	case RexClear:
		return "0"
	case RexFree:
		return "x"
	case RexSet:
		return "1"
	}
	return "?"
}

// Rex holds the state of the four REX bits for one instruction variant.
//
// W is decided by the expansion passes and stored on the instruction. R, X
// and B depend on where the operands live and, for memory operands, on the
// addressing mode, so they stay RexClear on the instruction and are filled
// in during emission.
type Rex struct {
	W, R, X, B RexBit
}

// FreeRXB returns the letters of the R, X and B bits that may be set, or
// "NONE" if none may.
func (r Rex) FreeRXB() string {
	var b strings.Builder
	if r.R == RexFree {
		b.WriteByte('R')
	}
	if r.X == RexFree {
		b.WriteByte('X')
	}
	if r.B == RexFree {
		b.WriteByte('B')
	}
	if b.Len() == 0 {
		return "NONE"
	}
	return b.String()
}

func (r Rex) String() string {
	return "W" + r.W.String() + "R" + r.R.String() + "X" + r.X.String() + "B" + r.B.String()
}
