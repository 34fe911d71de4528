package x86def

import (
	"sort"
	"strings"
)

// Size is an operand size code as spelled in definition files.
type Size string

const (
	SizeUnset Size = "" // resolved by the byte/non-byte split

	SizeByte  Size = "b"
	SizeWord  Size = "w"
	SizeDword Size = "d"
	SizeQword Size = "q"
	SizeReg   Size = "r" // 32 or 64 bits depending on bitness
	Size2Bit  Size = "2" // packed into the low bits of the is4 byte
	SizeX87   Size = "7" // 80-bit x87 register

	SizeZ Size = "z" // word or dword
	SizeY Size = "y" // dword or qword
	SizeV Size = "v" // word, dword or qword

	SizeDQ  Size = "dq"
	SizeQQ  Size = "qq"
	SizePB  Size = "pb"
	SizePW  Size = "pw"
	SizePD  Size = "pd"
	SizePQ  Size = "pq"
	SizePS  Size = "ps"
	SizeSD  Size = "sd"
	SizeSS  Size = "ss"
	SizePBY Size = "pby"
	SizePWY Size = "pwy"
	SizePDY Size = "pdy"
	SizePQY Size = "pqy"
	SizePSY Size = "psy"

	SizeX   Size = "x"
	SizePBX Size = "pbx"
	SizePWX Size = "pwx"
	SizePDX Size = "pdx"
	SizePQX Size = "pqx"
	SizePSX Size = "psx"
)

var sizes = []Size{
	SizeByte, SizeWord, SizeDword, SizeQword, SizeReg, Size2Bit, SizeX87,
	SizeZ, SizeY, SizeV,
	SizeDQ, SizeQQ, SizePB, SizePW, SizePD, SizePQ, SizePS, SizeSD, SizeSS,
	SizePBY, SizePWY, SizePDY, SizePQY, SizePSY,
	SizeX, SizePBX, SizePWX, SizePDX, SizePQX, SizePSX,
}

var xmmSizes = map[Size]bool{
	SizeByte: true, SizeWord: true, SizeDword: true, SizeQword: true,
	SizeDQ: true, SizePB: true, SizePW: true, SizePD: true, SizePQ: true,
	SizePS: true, SizeSD: true, SizeSS: true,
}

var ymmSizes = map[Size]bool{
	SizeQQ: true, SizePBY: true, SizePWY: true, SizePDY: true, SizePQY: true, SizePSY: true,
}

var mmxSizes = map[Size]bool{
	SizeDword: true, SizeQword: true, SizePB: true, SizePW: true, SizePD: true, SizePQ: true,
}

// IsPolymorphic is true for the sizes decided by the operand-size split.
func (s Size) IsPolymorphic() bool {
	return s == SizeZ || s == SizeY || s == SizeV
}

// IsVectorAmbiguous is true for sizes whose width is selected by VEX.L.
func (s Size) IsVectorAmbiguous() bool {
	switch s {
	case SizeX, SizePBX, SizePWX, SizePDX, SizePQX, SizePSX:
		return true
	}
	return false
}

// VectorSplit returns the xmm and ymm forms of a VEX.L-ambiguous size.
func (s Size) VectorSplit() (xmm, ymm Size, ok bool) {
	if !s.IsVectorAmbiguous() {
		return "", "", false
	}
	if s == SizeX {
		return SizeDQ, SizeQQ, true
	}
	base := strings.TrimSuffix(string(s), "x")
	return Size(base), Size(base + "y"), true
}

func sizesLongestFirst() []string {
	ret := make([]string, 0, len(sizes))
	for _, s := range sizes {
		ret = append(ret, string(s))
	}
	sort.Slice(ret, func(i, j int) bool {
		if len(ret[i]) != len(ret[j]) {
			return len(ret[i]) > len(ret[j])
		}
		return ret[i] < ret[j]
	})
	return ret
}
