package x86def

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		Record string
		Want   *Instruction
	}{
		{
			Record: "add G E, 0x00, lock",
			Want: &Instruction{
				Name: "add",
				Operands: []Operand{
					{ReadWrite: Read, Type: ArgRegisterInReg, Index: -1},
					{ReadWrite: ReadWrite, Type: ArgRegisterOrMemory, Index: -1},
				},
				Opcodes:    []Opcode{{Kind: OpcodeByte, Value: 0x00}},
				Attributes: Attributes{AttrLock: {}},
			},
		},
		{
			Record: "imul Ev iz Gv, 0x69",
			Want: &Instruction{
				Name: "imul",
				Operands: []Operand{
					{ReadWrite: Read, Type: ArgRegisterOrMemory, Size: SizeV, Index: -1},
					{ReadWrite: Read, Type: ArgImmediate, Size: SizeZ, Index: -1},
					{ReadWrite: Write, Type: ArgRegisterInReg, Size: SizeV, Index: -1},
				},
				Opcodes:    []Opcode{{Kind: OpcodeByte, Value: 0x69}},
				Attributes: Attributes{},
			},
		},
		{
			Record: `"rep movsb" =Xb !Yb, 0xf3 0xa4, ia32`,
			Want: &Instruction{
				Name: "rep movsb",
				Operands: []Operand{
					{ReadWrite: Read, Type: ArgDsSi, Size: SizeByte, Index: -1},
					{ReadWrite: Write, Type: ArgEsDi, Size: SizeByte, Index: -1},
				},
				Opcodes: []Opcode{
					{Kind: OpcodeByte, Value: 0xf3},
					{Kind: OpcodeByte, Value: 0xa4},
				},
				Attributes: Attributes{AttrIA32: {}},
			},
		},
		{
			Record: "vaddps =Wpsx =Hpsx !Vpsx, 0xc4 RXB.01 x.src.L.00 0x58, CPUFeature_AVX",
			Want: &Instruction{
				Name: "vaddps",
				Operands: []Operand{
					{ReadWrite: Read, Type: ArgXMMRegisterOrMemory, Size: SizePSX, Index: -1},
					{ReadWrite: Read, Type: ArgXMMRegisterInVVVV, Size: SizePSX, Index: -1},
					{ReadWrite: Write, Type: ArgXMMRegisterInReg, Size: SizePSX, Index: -1},
				},
				Opcodes: []Opcode{
					{Kind: OpcodeByte, Value: 0xc4},
					{Kind: OpcodeVexMap, Value: 0x01},
					{Kind: OpcodeVexFields, Vex: VexFields{W: 'x', VVVV: "src", L: 'L', PP: 0}},
					{Kind: OpcodeByte, Value: 0x58},
				},
				Attributes: Attributes{CPUFeature("AVX"): {}},
			},
		},
		{
			Record: "pfadd =Nq &Pq, 0x0f 0x0f / 0x9e",
			Want: &Instruction{
				Name: "pfadd",
				Operands: []Operand{
					{ReadWrite: Read, Type: ArgMMXRegisterInRM, Size: SizeQword, Index: -1},
					{ReadWrite: ReadWrite, Type: ArgMMXRegisterInReg, Size: SizeQword, Index: -1},
				},
				Opcodes: []Opcode{
					{Kind: OpcodeByte, Value: 0x0f},
					{Kind: OpcodeByte, Value: 0x0f},
					{Kind: OpcodeImmediateOpcode},
					{Kind: OpcodeByte, Value: 0x9e},
				},
				Attributes: Attributes{},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.Record, func(t *testing.T) {
			got, err := ParseInstruction(test.Record)
			if err != nil {
				t.Fatalf("ParseInstruction(%q): got unexpected error: %v", test.Record, err)
			}

			if diff := cmp.Diff(test.Want, got); diff != "" {
				t.Fatalf("ParseInstruction(%q): (-want, +got)\n%s", test.Record, diff)
			}
		})
	}
}

func TestParseInstructionErrors(t *testing.T) {
	tests := []struct {
		Record string
		Want   error
	}{
		{"nop", ErrFieldCount},
		{"nop, 0x90, lock, rep", ErrFieldCount},
		{"bad Gv, 0xzz", ErrInvalidOpcode},
		{"bad Gv, 0x0f /8", ErrInvalidOpcode},
		{"bad Gv, 0x0f RXB.2f", ErrInvalidOpcode},
		{"bad Gv Zv, 0x00", ErrInvalidOperand},
		{"bad Mb Md, 0x00", ErrInvalidOperand},
		{"bad Gv, 0x00, sse4", ErrUnknownAttribute},
	}

	for _, test := range tests {
		t.Run(test.Record, func(t *testing.T) {
			_, err := ParseInstruction(test.Record)
			if !errors.Is(err, test.Want) {
				t.Fatalf("ParseInstruction(%q): got error %v, want %v", test.Record, err, test.Want)
			}
		})
	}
}

func TestParseAttributeSuggestion(t *testing.T) {
	_, err := ParseInstruction("add G E, 0x00, lokc")
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("got error %v, want %v", err, ErrUnknownAttribute)
	}
	if !strings.Contains(err.Error(), `did you mean "lock"?`) {
		t.Fatalf("error %q does not suggest the lock attribute", err)
	}

	_, err = ParseAttribute("completely-unrelated-attribute")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("unexpected suggestion for a distant name: %v", err)
	}
}

func TestParseOpcode(t *testing.T) {
	tests := []struct {
		Token string
		Want  Opcode
	}{
		{"0x0f", Opcode{Kind: OpcodeByte, Value: 0x0f}},
		{"0xC4", Opcode{Kind: OpcodeByte, Value: 0xc4}},
		{"data16", Opcode{Kind: OpcodeData16}},
		{"rexw", Opcode{Kind: OpcodeRexW}},
		{"/5", Opcode{Kind: OpcodeModRMExtension, Value: 5}},
		{"/", Opcode{Kind: OpcodeImmediateOpcode}},
		{"RXB.0A", Opcode{Kind: OpcodeVexMap, Value: 0x0a}},
		{"RXB.01010", Opcode{Kind: OpcodeVexMap, Value: 0x0a}},
		{"W.cntl.1.11", Opcode{Kind: OpcodeVexFields, Vex: VexFields{W: 'W', VVVV: "cntl", L: '1', PP: 3}}},
		{"0.1111.x.10", Opcode{Kind: OpcodeVexFields, Vex: VexFields{W: '0', VVVV: "1111", L: 'x', PP: 2}}},
	}

	for _, test := range tests {
		t.Run(test.Token, func(t *testing.T) {
			got, err := ParseOpcode(test.Token)
			if err != nil {
				t.Fatalf("ParseOpcode(%q): got unexpected error: %v", test.Token, err)
			}
			if diff := cmp.Diff(test.Want, got); diff != "" {
				t.Fatalf("ParseOpcode(%q): (-want, +got)\n%s", test.Token, diff)
			}
		})
	}
}

func TestDefaultReadWrite(t *testing.T) {
	tests := []struct {
		N    int
		Want []ReadWriteMode
	}{
		{1, []ReadWriteMode{ReadWrite}},
		{2, []ReadWriteMode{Read, ReadWrite}},
		{3, []ReadWriteMode{Read, Read, Write}},
		{4, []ReadWriteMode{Read, Read, Read, Write}},
	}

	for _, test := range tests {
		var got []ReadWriteMode
		for i := 0; i < test.N; i++ {
			got = append(got, defaultReadWrite(i, test.N))
		}
		if diff := cmp.Diff(test.Want, got); diff != "" {
			t.Errorf("%d operands: (-want, +got)\n%s", test.N, diff)
		}
	}
}
