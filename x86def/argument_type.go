package x86def

import (
	"sort"
)

// ReadWriteMode says how an instruction accesses one of its operands.
type ReadWriteMode byte

const (
	Unused    ReadWriteMode = '\''
	Read      ReadWriteMode = '='
	Write     ReadWriteMode = '!'
	ReadWrite ReadWriteMode = '&'
)

func (m ReadWriteMode) String() string {
	return string(rune(m))
}

// Writes reports whether the operand's value is changed by the instruction.
func (m ReadWriteMode) Writes() bool {
	return m == Write || m == ReadWrite
}

var readWriteModes = []ReadWriteMode{Unused, Read, Write, ReadWrite}

// ArgType identifies where an operand lives in the encoded instruction.
type ArgType uint8

const (
	ArgInvalid ArgType = iota

	ArgAccumulator // AL/AX/EAX/RAX
	ArgCounter     // CL/CX/ECX/RCX
	ArgData        // DX/EDX

	ArgImmediate
	ArgSecondImmediate
	ArgAbsoluteDisp
	ArgRelativeTarget

	ArgDsSi // implicit string source
	ArgEsDi // implicit string destination

	ArgX87St
	ArgX87InOpcode

	ArgRegisterInOpcode
	ArgRegisterInReg
	ArgRegisterInRM
	ArgRegisterInVVVV

	ArgSegmentRegisterInReg
	ArgControlRegisterInReg
	ArgDebugRegisterInReg

	ArgMMXRegisterInReg
	ArgMMXRegisterInRM

	ArgXMMRegisterInReg
	ArgXMMRegisterInRM
	ArgXMMRegisterInVVVV
	ArgXMMRegisterInIs4

	ArgMemory

	// Register-or-memory operands are split into two variants before
	// emission.
	ArgRegisterOrMemory
	ArgMMXRegisterOrMemory
	ArgXMMRegisterOrMemory
)

var argTypeCodes = map[ArgType]string{
	ArgAccumulator:          "a",
	ArgCounter:              "c",
	ArgData:                 "d",
	ArgImmediate:            "i",
	ArgSecondImmediate:      "I",
	ArgAbsoluteDisp:         "O",
	ArgRelativeTarget:       "J",
	ArgDsSi:                 "X",
	ArgEsDi:                 "Y",
	ArgX87St:                "ST",
	ArgX87InOpcode:          "STi",
	ArgRegisterInOpcode:     "r",
	ArgRegisterInReg:        "G",
	ArgRegisterInRM:         "R",
	ArgRegisterInVVVV:       "B",
	ArgSegmentRegisterInReg: "S",
	ArgControlRegisterInReg: "C",
	ArgDebugRegisterInReg:   "D",
	ArgMMXRegisterInReg:     "P",
	ArgMMXRegisterInRM:      "N",
	ArgXMMRegisterInReg:     "V",
	ArgXMMRegisterInRM:      "U",
	ArgXMMRegisterInVVVV:    "H",
	ArgXMMRegisterInIs4:     "L",
	ArgMemory:               "M",
	ArgRegisterOrMemory:     "E",
	ArgMMXRegisterOrMemory:  "Q",
	ArgXMMRegisterOrMemory:  "W",
}

var argTypesByCode = func() map[string]ArgType {
	ret := make(map[string]ArgType, len(argTypeCodes))
	for ty, code := range argTypeCodes {
		ret[code] = ty
	}
	return ret
}()

// Code returns the definition-file spelling of the type.
func (t ArgType) Code() string {
	return argTypeCodes[t]
}

func (t ArgType) String() string {
	if code, ok := argTypeCodes[t]; ok {
		return code
	}
	return "<invalid>"
}

// IsGeneralRegister is true for the general-purpose register kinds, which
// are the only operands whose writes the 64-bit validator tracks.
func (t ArgType) IsGeneralRegister() bool {
	switch t {
	case ArgAccumulator, ArgCounter, ArgData,
		ArgRegisterInOpcode, ArgRegisterInReg, ArgRegisterInRM, ArgRegisterInVVVV:
		return true
	}
	return false
}

// IsAmbiguous is true for the register-or-memory kinds.
func (t ArgType) IsAmbiguous() bool {
	switch t {
	case ArgRegisterOrMemory, ArgMMXRegisterOrMemory, ArgXMMRegisterOrMemory:
		return true
	}
	return false
}

// Split returns the register and memory kinds an ambiguous type stands for.
func (t ArgType) Split() (reg, mem ArgType, ok bool) {
	switch t {
	case ArgRegisterOrMemory:
		return ArgRegisterInRM, ArgMemory, true
	case ArgMMXRegisterOrMemory:
		return ArgMMXRegisterInRM, ArgMemory, true
	case ArgXMMRegisterOrMemory:
		return ArgXMMRegisterInRM, ArgMemory, true
	}
	return ArgInvalid, ArgInvalid, false
}

// argTypeCodesLongestFirst lists the codes so that a regular expression
// alternation tries "STi" before "ST" before "S".
func argTypeCodesLongestFirst() []string {
	codes := make([]string, 0, len(argTypeCodes))
	for _, code := range argTypeCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] < codes[j]
	})
	return codes
}
