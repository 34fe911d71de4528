package x86def

// Prefix is a legacy prefix as it appears in the grammar: either a raw
// byte that is part of the encoding or the name of a prefix the grammar
// compiler already knows.
type Prefix string

const (
	PrefixData16     Prefix = "data16"
	Prefix66         Prefix = "0x66"
	PrefixF0         Prefix = "0xf0"
	PrefixF2         Prefix = "0xf2"
	PrefixF3         Prefix = "0xf3"
	PrefixLock       Prefix = "lock"
	PrefixRep        Prefix = "rep"
	PrefixCondRep    Prefix = "condrep"
	PrefixBranchHint Prefix = "branch_hint"
)

// optionalPrefixAttributes are the attributes that permit an optional
// legacy prefix, in the order the prefixes are collected.
var optionalPrefixAttributes = []struct {
	Attr   Attribute
	Prefix Prefix
}{
	{AttrBranchHint, PrefixBranchHint},
	{AttrCondRep, PrefixCondRep},
	{AttrRep, PrefixRep},
	{AttrLock, PrefixLock},
}

// requiredPrefix returns the prefix an opcode token stands for when it
// appears in front of the real opcode bytes.
func requiredPrefix(o Opcode) (Prefix, bool) {
	switch {
	case o.Kind == OpcodeData16:
		return PrefixData16, true
	case o.IsByte(0x66):
		return Prefix66, true
	case o.IsByte(0xf0):
		return PrefixF0, true
	case o.IsByte(0xf2):
		return PrefixF2, true
	case o.IsByte(0xf3):
		return PrefixF3, true
	}
	return "", false
}

// HasPrefix reports whether p is one of ps.
func HasPrefix(ps []Prefix, p Prefix) bool {
	for _, have := range ps {
		if have == p {
			return true
		}
	}
	return false
}
