package x86def

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

type Attribute string

type Attributes map[Attribute]struct{}

const (
	AttrBranchHint Attribute = "branch_hint"
	AttrCondRep    Attribute = "condrep"
	AttrRep        Attribute = "rep"
	AttrLock       Attribute = "lock"

	AttrAMD64 Attribute = "amd64" // only valid in 64-bit mode
	AttrIA32  Attribute = "ia32"  // only valid in 32-bit mode

	AttrNoRex  Attribute = "norex"
	AttrNoRexW Attribute = "norexw"

	AttrNaClForbidden       Attribute = "nacl-forbidden"
	AttrNaClIA32Forbidden   Attribute = "nacl-ia32-forbidden"
	AttrNaClAMD64Forbidden  Attribute = "nacl-amd64-forbidden"
	AttrNaClAMD64Modifiable Attribute = "nacl-amd64-modifiable"
	AttrNaClUnsupported     Attribute = "nacl-unsupported"
	AttrNoMemoryAccess      Attribute = "no_memory_access"

	AttrSuffixB Attribute = "att-show-name-suffix-b"
	AttrSuffixW Attribute = "att-show-name-suffix-w"
	AttrSuffixL Attribute = "att-show-name-suffix-l"
	AttrSuffixQ Attribute = "att-show-name-suffix-q"
	AttrSuffixX Attribute = "att-show-name-suffix-x"
	AttrSuffixY Attribute = "att-show-name-suffix-y"

	// AttrFeatureAVXAVX2 marks instructions whose 128-bit form needs AVX
	// and whose 256-bit form needs AVX2.
	AttrFeatureAVXAVX2 Attribute = "CPUFeature_AVX-AVX2"
)

const cpuFeaturePrefix = "CPUFeature_"

var cpuFeatures = []string{
	"3DNOW", "3DPRFTCH", "AES", "AESAVX", "AVX", "AVX2", "BMI1", "CLFLUSH",
	"CLMUL", "CLMULAVX", "CMOV", "CMOVx87", "CX16", "CX8", "E3DNOW", "EMMX",
	"EMMXSSE", "F16C", "FMA", "FMA4", "FXSR", "LAHF", "LWP", "LZCNT", "MMX",
	"MON", "MOVBE", "MSR", "POPCNT", "SEP", "SFENCE", "SKINIT", "SSE", "SSE2",
	"SSE3", "SSE41", "SSE42", "SSE4A", "SSSE3", "SVM", "SYSCALL", "TBM",
	"TSC", "TSCP", "TZCNT", "x87", "XOP",
}

// CPUFeature returns the attribute requiring the named CPU feature.
func CPUFeature(name string) Attribute {
	return Attribute(cpuFeaturePrefix + name)
}

var knownAttributes = func() Attributes {
	ret := make(Attributes)
	for _, a := range []Attribute{
		AttrBranchHint, AttrCondRep, AttrRep, AttrLock,
		AttrAMD64, AttrIA32, AttrNoRex, AttrNoRexW,
		AttrNaClForbidden, AttrNaClIA32Forbidden, AttrNaClAMD64Forbidden,
		AttrNaClAMD64Modifiable, AttrNaClUnsupported, AttrNoMemoryAccess,
		AttrSuffixB, AttrSuffixW, AttrSuffixL, AttrSuffixQ, AttrSuffixX, AttrSuffixY,
		AttrFeatureAVXAVX2,
	} {
		ret.Add(a)
	}
	for _, name := range cpuFeatures {
		ret.Add(CPUFeature(name))
	}
	return ret
}()

// IsCPUFeature is true for attributes naming a CPU feature requirement.
func (a Attribute) IsCPUFeature() bool {
	return strings.HasPrefix(string(a), cpuFeaturePrefix)
}

// ParseAttribute validates a definition-file attribute name.
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(s)
	if knownAttributes.Has(a) {
		return a, nil
	}
	if closest := closestAttribute(s); closest != "" {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownAttribute, s, closest)
	}
	return "", fmt.Errorf("%w %q", ErrUnknownAttribute, s)
}

// closestAttribute suggests a known attribute for a misspelled one, or
// returns the empty string if nothing is close enough to be helpful.
func closestAttribute(s string) Attribute {
	const maxDistance = 3
	best := maxDistance + 1
	var ret Attribute
	for _, a := range knownAttributes.Sorted() {
		dist := levenshtein.ComputeDistance(s, string(a))
		if dist < best {
			best = dist
			ret = a
		}
	}
	return ret
}

func (as Attributes) Has(a Attribute) bool {
	_, ok := as[a]
	return ok
}

func (as Attributes) Add(a Attribute) {
	as[a] = struct{}{}
}

func (as Attributes) Remove(a Attribute) {
	delete(as, a)
}

func (as Attributes) Clone() Attributes {
	ret := make(Attributes, len(as))
	for a := range as {
		ret[a] = struct{}{}
	}
	return ret
}

// Sorted returns the attributes in a stable order.
func (as Attributes) Sorted() []Attribute {
	ret := make([]Attribute, 0, len(as))
	for a := range as {
		ret = append(ret, a)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i] < ret[j]
	})
	return ret
}

func (as Attributes) String() string {
	var buf strings.Builder
	for i, a := range as.Sorted() {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(string(a))
	}
	return buf.String()
}
