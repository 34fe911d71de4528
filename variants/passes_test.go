package variants

import (
	"errors"
	"testing"

	"github.com/apparentlymart/x86-meta/x86def"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

func parse(t *testing.T, record string) *x86def.Instruction {
	t.Helper()
	inst, err := x86def.ParseInstruction(record)
	if err != nil {
		t.Fatalf("ParseInstruction(%q): %v", record, err)
	}
	if err := x86def.CollectPrefixes(inst); err != nil {
		t.Fatalf("CollectPrefixes(%q): %v", record, err)
	}
	return inst
}

// summary is the part of a variant the tests below care about, rendered
// as the definition syntax plus prefixes and REX state.
func summaries(insts []*x86def.Instruction) []string {
	ret := make([]string, len(insts))
	for i, inst := range insts {
		ret[i] = inst.String()
	}
	return ret
}

func TestPasses(t *testing.T) {
	tests := []struct {
		Name   string
		Pass   Pass
		Record string
		Want   []string
	}{
		{
			Name:   "register/memory split",
			Pass:   SplitRegisterMemory,
			Record: "add G E, 0x00, lock",
			Want: []string{
				"add =G &R, 0x00 rex=W0R0X0B0",
				"add =G &M, 0x00, lock optional=[lock] rex=W0R0X0B0",
			},
		},
		{
			Name:   "register/memory split of xmm operand",
			Pass:   SplitRegisterMemory,
			Record: "addps =Wps &Vps, 0x0f 0x58",
			Want: []string{
				"addps =Ups &Vps, 0x0f 0x58 rex=W0R0X0B0",
				"addps =Mps &Vps, 0x0f 0x58 rex=W0R0X0B0",
			},
		},
		{
			Name:   "register/memory split without ambiguity",
			Pass:   SplitRegisterMemory,
			Record: "nop, 0x90",
			Want:   []string{"nop, 0x90 rex=W0R0X0B0"},
		},
		{
			Name:   "byte/non-byte split",
			Pass:   SplitByteNonByte,
			Record: "add G E, 0x00",
			Want: []string{
				"add =Gb &Eb, 0x00 rex=W0R0X0B0",
				"add =Gv &Ev, 0x01 rex=W0R0X0B0",
			},
		},
		{
			Name:   "byte/non-byte split with immediate",
			Pass:   SplitByteNonByte,
			Record: "add =i &a, 0x04",
			Want: []string{
				"add =ib &ab, 0x04 rex=W0R0X0B0",
				"add =iz &av, 0x05 rex=W0R0X0B0",
			},
		},
		{
			Name:   "byte/non-byte split before opcode extension",
			Pass:   SplitByteNonByte,
			Record: "inc &E, 0xfe /0",
			Want: []string{
				"inc &Eb, 0xfe /0, att-show-name-suffix-b rex=W0R0X0B0",
				"inc &Ev, 0xff /0 rex=W0R0X0B0",
			},
		},
		{
			Name:   "operand size split in 32-bit mode",
			Pass:   SplitOperandSize(32),
			Record: "mov =Ev !Gv, 0x8b",
			Want: []string{
				"mov =Ew !Gw, 0x8b required=[data16] rex=W0R0X0B0",
				"mov =Ed !Gd, 0x8b rex=W0R0X0B0",
			},
		},
		{
			Name:   "operand size split in 64-bit mode",
			Pass:   SplitOperandSize(64),
			Record: "mov =Ev !Gv, 0x8b",
			Want: []string{
				"mov =Ew !Gw, 0x8b required=[data16] rex=W0R0X0B0",
				"mov =Ed !Gd, 0x8b rex=W0R0X0B0",
				"mov =Eq !Gq, 0x8b rex=W1R0X0B0",
			},
		},
		{
			Name:   "operand size split with suffixes",
			Pass:   SplitOperandSize(64),
			Record: "inc &Ev, 0xff /0",
			Want: []string{
				"inc &Ew, 0xff /0, att-show-name-suffix-w required=[data16] rex=W0R0X0B0",
				"inc &Ed, 0xff /0, att-show-name-suffix-l rex=W0R0X0B0",
				"inc &Eq, 0xff /0, att-show-name-suffix-q rex=W1R0X0B0",
			},
		},
		{
			Name:   "operand size split of y",
			Pass:   SplitOperandSize(64),
			Record: "movsx =Ew !Gy, 0x0f 0xbf",
			Want: []string{
				"movsx =Ew !Gd, 0x0f 0xbf rex=W0R0X0B0",
				"movsx =Ew !Gq, 0x0f 0xbf rex=W1R0X0B0",
			},
		},
		{
			Name:   "operand size split of z",
			Pass:   SplitOperandSize(64),
			Record: "push =iz, 0x68",
			Want: []string{
				"push =iw, 0x68, att-show-name-suffix-w required=[data16] rex=W0R0X0B0",
				"push =id, 0x68, att-show-name-suffix-l rex=W0R0X0B0",
			},
		},
		{
			Name:   "operand size split with norexw",
			Pass:   SplitOperandSize(64),
			Record: "push =rv, 0x50, norexw",
			Want: []string{
				"push =rw, 0x50, norexw required=[data16] rex=W0R0X0B0",
				"push =rd, 0x50, norexw rex=W0R0X0B0",
			},
		},
		{
			Name:   "REX.W is free without polymorphic operands",
			Pass:   SplitOperandSize(64),
			Record: "nop, 0x90",
			Want:   []string{"nop, 0x90 rex=WxR0X0B0"},
		},
		{
			Name:   "REX.W stays clear with norexw",
			Pass:   SplitOperandSize(64),
			Record: "mov =Gd !Rd, 0x89, norexw",
			Want:   []string{"mov =Gd !Rd, 0x89, norexw rex=W0R0X0B0"},
		},
		{
			Name:   "REX.W stays clear with data16",
			Pass:   SplitOperandSize(64),
			Record: "mov =Gw !Rw, data16 0x89",
			Want:   []string{"mov =Gw !Rw, 0x89 required=[data16] rex=W0R0X0B0"},
		},
		{
			Name:   "REX.W stays set",
			Pass:   SplitOperandSize(64),
			Record: "cdqe, rexw 0x98",
			Want:   []string{"cdqe, 0x98 rex=W1R0X0B0"},
		},
		{
			Name:   "vector length split",
			Pass:   SplitVectorLength,
			Record: "vaddps =Wpsx =Hpsx !Vpsx, 0xc4 RXB.01 x.src.L.00 0x58, CPUFeature_AVX",
			Want: []string{
				"vaddps =Wps =Hps !Vps, 0xc4 RXB.00001 x.src.0.00 0x58, CPUFeature_AVX rex=W0R0X0B0",
				"vaddps =Wpsy =Hpsy !Vpsy, 0xc4 RXB.00001 x.src.1.00 0x58, CPUFeature_AVX rex=W0R0X0B0",
			},
		},
		{
			Name:   "vector length split with paired feature",
			Pass:   SplitVectorLength,
			Record: "vpaddd =Wpdx =Hpdx !Vpdx, 0xc4 RXB.01 x.src.L.01 0xfe, CPUFeature_AVX-AVX2",
			Want: []string{
				"vpaddd =Wpd =Hpd !Vpd, 0xc4 RXB.00001 x.src.0.01 0xfe, CPUFeature_AVX rex=W0R0X0B0",
				"vpaddd =Wpdy =Hpdy !Vpdy, 0xc4 RXB.00001 x.src.1.01 0xfe, CPUFeature_AVX2 rex=W0R0X0B0",
			},
		},
		{
			Name:   "vector length split of bare size",
			Pass:   SplitVectorLength,
			Record: "vmovdqu =Wx !Vx, 0xc4 RXB.01 x.1111.L.10 0x6f",
			Want: []string{
				"vmovdqu =Wdq !Vdq, 0xc4 RXB.00001 x.1111.0.10 0x6f, att-show-name-suffix-x rex=W0R0X0B0",
				"vmovdqu =Wqq !Vqq, 0xc4 RXB.00001 x.1111.1.10 0x6f, att-show-name-suffix-y rex=W0R0X0B0",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			inst := parse(t, test.Record)
			before := inst.Clone()

			got, err := test.Pass(inst)
			if err != nil {
				t.Fatalf("got unexpected error: %v", err)
			}

			if diff := cmp.Diff(test.Want, summaries(got)); diff != "" {
				t.Errorf("wrong variants (-want, +got)\n%s", diff)
			}
			if diff := cmp.Diff(before, inst); diff != "" {
				t.Errorf("pass modified its input (-before, +after)\n%s", diff)
			}
		})
	}
}

func TestPassErrors(t *testing.T) {
	tests := []struct {
		Name   string
		Pass   Pass
		Record string
		Want   error
	}{
		{
			Name:   "two ambiguous operands",
			Pass:   SplitRegisterMemory,
			Record: "bad =Ev &Wps, 0x00",
			Want:   ErrAmbiguousOperands,
		},
		{
			Name:   "required lock",
			Pass:   SplitRegisterMemory,
			Record: "bad =Gv &Ev, 0xf0 0x87",
			Want:   ErrLockRegister,
		},
		{
			Name:   "vector length without VEX",
			Pass:   SplitVectorLength,
			Record: "paddd =Wpdx &Vpdx, 0x0f 0xfe",
			Want:   ErrNotVex,
		},
		{
			Name:   "vector length already fixed",
			Pass:   SplitVectorLength,
			Record: "vaddps =Wpsx =Hpsx !Vpsx, 0xc4 RXB.01 x.src.0.00 0x58",
			Want:   ErrNotVex,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := test.Pass(parse(t, test.Record))
			if !errors.Is(err, test.Want) {
				t.Fatalf("got error %v, want %v", err, test.Want)
			}
		})
	}
}

func TestExpandMovBitness32(t *testing.T) {
	inst := parse(t, "mov Gv Ev, 0x8b")

	got, err := Expand(32, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"mov =Gw &Rw, 0x8b required=[data16] rex=W0R0X0B0",
		"mov =Gd &Rd, 0x8b rex=W0R0X0B0",
		"mov =Gw &Mw, 0x8b required=[data16] rex=W0R0X0B0",
		"mov =Gd &Md, 0x8b rex=W0R0X0B0",
	}
	if diff := cmp.Diff(want, summaries(got)); diff != "" {
		t.Fatalf("wrong variants (-want, +got)\n%s", diff)
	}

	for _, v := range got {
		if v.Rex.W == x86def.RexSet {
			t.Errorf("64-bit variant at bitness 32:\n%s", spew.Sdump(v))
		}
	}
}

func TestExpandCounts(t *testing.T) {
	tests := []struct {
		Record  string
		Bitness int
		Want    int
	}{
		{"add G E, 0x00, lock", 32, 6},
		{"add G E, 0x00, lock", 64, 8},
		{"mov Gv Ev, 0x8b", 64, 6},
		{"vaddps =Wpsx =Hpsx !Vpsx, 0xc4 RXB.01 x.src.L.00 0x58", 64, 4},
		{"nop, 0x90", 64, 1},
		{"push =iz, 0x68", 32, 2},
	}

	for _, test := range tests {
		got, err := Expand(test.Bitness, parse(t, test.Record))
		if err != nil {
			t.Errorf("Expand(%d, %q): unexpected error: %v", test.Bitness, test.Record, err)
			continue
		}
		if len(got) != test.Want {
			t.Errorf("Expand(%d, %q): got %d variants, want %d\n%s", test.Bitness, test.Record, len(got), test.Want, spew.Sdump(summaries(got)))
		}
	}
}

func TestExpandDeterministic(t *testing.T) {
	for _, record := range []string{
		"add G E, 0x00, lock",
		"vpaddd =Wpdx =Hpdx !Vpdx, 0xc4 RXB.01 x.src.L.01 0xfe, CPUFeature_AVX-AVX2",
		"imul =Ev =iz !Gv, 0x69",
	} {
		first, err := Expand(64, parse(t, record))
		if err != nil {
			t.Fatalf("Expand(%q): %v", record, err)
		}
		second, err := Expand(64, parse(t, record))
		if err != nil {
			t.Fatalf("Expand(%q): %v", record, err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Expand(%q) is not deterministic (-first, +second)\n%s", record, diff)
		}
	}
}
