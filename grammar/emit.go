package grammar

import (
	"fmt"
	"strings"

	"github.com/apparentlymart/x86-meta/x86def"
)

// Emit renders one concrete instruction variant as a grammar expression
// for the given consumer and bitness.
//
// Operands the consumer needs to know about are numbered in definition
// order, or from the last operand when reverseOperands is set.
func Emit(mode Mode, bitness int, inst *x86def.Instruction, reverseOperands bool) (string, error) {
	e := &emitter{
		mode:    mode,
		bitness: bitness,
		inst:    inst,
	}
	e.indexOperands(reverseOperands)

	prefixes, err := GenerateLegacyPrefixes(bitness, inst.RequiredPrefixes, inst.OptionalPrefixes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", inst.Name, err)
	}
	e.legacy = renderLegacyPrefixes(prefixes)

	var body string
	switch {
	case inst.HasMemoryOperand():
		alts := make([]string, 0, len(AddressModes))
		for i := range AddressModes {
			seq, err := e.sequence(&AddressModes[i])
			if err != nil {
				return "", err
			}
			alts = append(alts, "("+seq+")")
		}
		body = "(" + strings.Join(alts, " |\n     ") + ")"
	default:
		seq, err := e.sequence(nil)
		if err != nil {
			return "", err
		}
		body = "(" + seq + ")"
	}

	// nop is xchg of the accumulator with itself, and must not be
	// recognized as xchg.
	if inst.Name == "xchg" {
		body = "(" + body + " - (0x90 | 0x48 0x90))"
	}

	return body, nil
}

type emitter struct {
	mode    Mode
	bitness int
	inst    *x86def.Instruction

	// operands are copies of the instruction's operands with Index set.
	operands []x86def.Operand
	count    int

	legacy string
}

func (e *emitter) needsIndex(op x86def.Operand) bool {
	switch {
	case e.mode == Decoder:
		return !op.Implicit
	case e.bitness == 64:
		return op.ReadWrite.Writes() && op.Type.IsGeneralRegister()
	}
	return false
}

func (e *emitter) indexOperands(reverse bool) {
	e.operands = append([]x86def.Operand(nil), e.inst.Operands...)
	for i := range e.operands {
		e.operands[i].Index = -1
	}

	order := make([]int, len(e.operands))
	for i := range order {
		if reverse {
			order[i] = len(order) - 1 - i
		} else {
			order[i] = i
		}
	}
	for _, i := range order {
		if e.needsIndex(e.operands[i]) {
			e.operands[i].Index = e.count
			e.count++
		}
	}
}

// sourceSet counts the source actions given to each operand index.
type sourceSet map[int]int

// sequence renders the complete byte sequence of the variant, for one
// memory form when mem is non-nil.
func (e *emitter) sequence(mem *AddressMode) (string, error) {
	inst := e.inst
	rex := resolveRex(e.bitness, inst, mem)
	sources := make(sourceSet)

	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	add(e.legacy)
	add(e.rexPrefix(rex))

	vex, err := e.vexPrefix(rex)
	if err != nil {
		return "", err
	}
	add(vex)

	opcode, err := e.opcode(sources)
	if err != nil {
		return "", err
	}
	add(opcode)

	add(e.modrm(mem))

	signature, err := e.signature()
	if err != nil {
		return "", err
	}
	add(signature)

	add(e.sources(sources))
	if err := e.checkSources(sources); err != nil {
		return "", err
	}

	add(e.trailingOpcode())

	imm, err := e.immediates()
	if err != nil {
		return "", err
	}
	add(imm)

	disp, err := e.displacements()
	if err != nil {
		return "", err
	}
	add(disp)

	if e.mode == Validator && e.bitness == 64 {
		add(e.processOperands())
	}

	return strings.Join(parts, " "), nil
}

func renderLegacyPrefixes(combos [][]x86def.Prefix) string {
	var alts []string
	optional := false
	for _, combo := range combos {
		if len(combo) == 0 {
			optional = true
			continue
		}
		alts = append(alts, prefixKey(combo))
	}
	switch {
	case len(alts) == 0:
		return ""
	case len(alts) == 1 && !optional:
		return alts[0]
	case optional:
		return "(" + strings.Join(alts, " | ") + ")?"
	default:
		return "(" + strings.Join(alts, " | ") + ")"
	}
}

func (e *emitter) rexPrefix(rex x86def.Rex) string {
	inst := e.inst
	if e.bitness != 64 || inst.IsVexOrXop() || inst.HasAttribute(x86def.AttrNoRex) {
		return ""
	}

	rxb := rex.FreeRXB()
	switch rex.W {
	case x86def.RexSet:
		return "REXW_" + rxb
	case x86def.RexClear:
		return "REX_" + rxb + "?"
	default:
		if rxb == "NONE" {
			return "REX_W?"
		}
		return "REX_W" + rxb + "?"
	}
}

func (e *emitter) vexPrefix(rex x86def.Rex) (string, error) {
	inst := e.inst
	if !inst.IsVexOrXop() {
		return "", nil
	}
	fields := inst.VexFields()

	escape := "VEX"
	if inst.IsXop() {
		escape = "XOP"
	}

	rxb := rex.FreeRXB()
	if e.bitness != 64 {
		rxb = "NONE"
	}

	var w string
	switch fields.W {
	case 'W':
		w = rex.W.String()
	default:
		w = string(fields.W)
	}

	vvvv := "1111"
	if fields.UsesVVVV() {
		vvvv = "xxxx"
		if e.bitness != 64 {
			vvvv = "1xxx"
		}
	}

	if fields.L == 'L' {
		return "", fmt.Errorf("%s: VEX.L was not resolved by the vector length split", inst.Name)
	}
	l := string(fields.L)
	pp := fmt.Sprintf("%02b", fields.PP)

	long := fmt.Sprintf("%s (%s_%s & %s_map%05b) %s",
		inst.Opcodes[0].String(), escape, rxb, escape, inst.VexMap(), bitPattern(w, vvvv, l, pp))

	// The two-byte form can only express the 0F map, and has no W bit.
	if !inst.IsXop() && inst.VexMap() == 1 && (w == "x" || w == "0") {
		r := "1"
		if e.bitness == 64 && rex.R == x86def.RexFree {
			r = "x"
		}
		short := "0xc5 " + bitPattern(r, vvvv, l, pp)
		return "(" + long + " | " + short + ")", nil
	}

	return long, nil
}

func (e *emitter) opcode(sources sourceSet) (string, error) {
	inst := e.inst
	start := 0
	if inst.IsVexOrXop() {
		start = 3
	}
	end := inst.MainOpcodeEnd()

	var parts []string
	for _, op := range inst.Opcodes[start:end] {
		if op.Kind != x86def.OpcodeByte {
			return "", fmt.Errorf("%s: %w: unexpected %s in opcode", inst.Name, x86def.ErrInvalidOpcode, op)
		}
		parts = append(parts, op.String())
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%s: %w: no opcode bytes", inst.Name, x86def.ErrInvalidOpcode)
	}

	inOpcode := 0
	for _, op := range e.operands {
		var action string
		switch op.Type {
		case x86def.ArgRegisterInOpcode:
			action = "from_opcode"
		case x86def.ArgX87InOpcode:
			action = "from_opcode_x87"
		default:
			continue
		}

		inOpcode++
		if inOpcode > 1 {
			return "", fmt.Errorf("%s: more than one operand encoded in the opcode", inst.Name)
		}

		last := inst.Opcodes[end-1].Value
		if last&0x07 != 0 {
			return "", fmt.Errorf("%s: opcode %s encodes a register but has low bits set", inst.Name, bits8(last))
		}
		alt := registerAlternation(last)
		if op.Index >= 0 {
			alt += " " + operandAction(op.Index, action)
			sources[op.Index]++
		}
		parts[len(parts)-1] = alt
	}

	return strings.Join(parts, " "), nil
}

func (e *emitter) modrm(mem *AddressMode) string {
	inst := e.inst
	ext, hasExt := inst.ModRMExtension()

	switch {
	case mem != nil:
		s := mem.Name
		if hasExt {
			s = fmt.Sprintf("(%s & (opcode_%d any*))", mem.Name, ext)
		}
		if e.mode == Validator && e.bitness == 64 && !inst.HasAttribute(x86def.AttrNoMemoryAccess) {
			s += " @check_access"
		}
		return s
	case inst.HasModRM():
		if hasExt {
			return fmt.Sprintf("(modrm_registers & opcode_%d)", ext)
		}
		return "modrm_registers"
	}
	return ""
}

// indexed returns the operands with an index, in index order.
func (e *emitter) indexed() []x86def.Operand {
	ret := make([]x86def.Operand, e.count)
	for _, op := range e.operands {
		if op.Index >= 0 {
			ret[op.Index] = op
		}
	}
	return ret
}

func (e *emitter) signature() (string, error) {
	inst := e.inst
	var actions []string

	if e.mode == Decoder {
		actions = append(actions,
			"@instruction_"+x86def.Identifier(inst.Name),
			fmt.Sprintf("@operands_count_is_%d", e.count),
		)
	}

	for _, op := range e.indexed() {
		format, err := op.Format(e.bitness)
		if err != nil {
			return "", fmt.Errorf("%s: %w", inst.Name, err)
		}
		actions = append(actions, operandAction(op.Index, format))
	}

	if e.mode == Validator {
		for _, attr := range inst.Attributes.Sorted() {
			if !attr.IsCPUFeature() {
				continue
			}
			if strings.ContainsRune(string(attr), '-') {
				return "", fmt.Errorf("%s: %s was not resolved by the vector length split", inst.Name, attr)
			}
			actions = append(actions, "@"+string(attr))
		}
		if inst.HasAttribute(x86def.AttrNaClUnsupported) {
			actions = append(actions, "@unsupported_instruction")
		}
		if e.bitness == 64 && inst.HasAttribute(x86def.AttrNaClAMD64Modifiable) {
			actions = append(actions, "@modifiable_instruction")
		}
	}

	return strings.Join(actions, " "), nil
}

func (e *emitter) sources(sources sourceSet) string {
	var actions []string
	for _, op := range e.indexed() {
		var source string
		switch op.Type {
		case x86def.ArgImmediate:
			source = "from_immediate"
		case x86def.ArgSecondImmediate:
			source = "from_second_immediate"
		case x86def.ArgRegisterInReg, x86def.ArgXMMRegisterInReg, x86def.ArgMMXRegisterInReg,
			x86def.ArgSegmentRegisterInReg, x86def.ArgControlRegisterInReg, x86def.ArgDebugRegisterInReg:
			source = "from_modrm_reg" + e.norexSuffix(op)
		case x86def.ArgRegisterInRM, x86def.ArgXMMRegisterInRM, x86def.ArgMMXRegisterInRM:
			source = "from_modrm_rm" + e.norexSuffix(op)
		case x86def.ArgMemory:
			source = "from_address"
		case x86def.ArgAbsoluteDisp:
			source = "from_absolute_disp"
		case x86def.ArgRelativeTarget:
			source = "from_relative_target"
		case x86def.ArgRegisterInVVVV, x86def.ArgXMMRegisterInVVVV:
			source = "from_vex"
		case x86def.ArgXMMRegisterInIs4:
			source = "from_is4"
		case x86def.ArgAccumulator:
			source = "from_rax"
		case x86def.ArgCounter:
			source = "from_rcx"
		case x86def.ArgData:
			source = "from_rdx"
		case x86def.ArgDsSi:
			source = "from_ds_rsi"
		case x86def.ArgEsDi:
			source = "from_es_rdi"
		case x86def.ArgX87St:
			source = "from_st"
		default:
			// Opcode-encoded registers got their source with the opcode;
			// anything else is left without one and fails the check.
			continue
		}
		sources[op.Index]++
		actions = append(actions, operandAction(op.Index, source))
	}
	return strings.Join(actions, " ")
}

// norexSuffix selects the ModRM source variant that ignores REX when the
// register field cannot be extended.
func (e *emitter) norexSuffix(op x86def.Operand) string {
	if e.bitness != 64 || e.inst.HasAttribute(x86def.AttrNoRex) || !rexExtensible(op.Type) {
		return "_norex"
	}
	return ""
}

// checkSources verifies that every operand in the signature got exactly
// one source action and nothing else did.
func (e *emitter) checkSources(sources sourceSet) error {
	for _, op := range e.operands {
		if op.Index < 0 {
			continue
		}
		if n := sources[op.Index]; n != 1 {
			return fmt.Errorf("%s: %w: operand %d (%s) has %d sources", e.inst.Name, ErrSourceMismatch, op.Index, op, n)
		}
	}
	if len(sources) != e.count {
		return fmt.Errorf("%s: %w: %d sources for %d operands", e.inst.Name, ErrSourceMismatch, len(sources), e.count)
	}
	return nil
}

// trailingOpcode returns the opcode bytes that follow ModRM in 3DNow!
// style encodings.
func (e *emitter) trailingOpcode() string {
	var parts []string
	trailing := false
	for _, op := range e.inst.Opcodes {
		switch {
		case op.Kind == x86def.OpcodeImmediateOpcode:
			trailing = true
		case trailing && op.Kind == x86def.OpcodeByte:
			parts = append(parts, op.String())
		}
	}
	return strings.Join(parts, " ")
}

func (e *emitter) immediates() (string, error) {
	inst := e.inst
	var parts []string
	packed := false

	for _, op := range inst.Operands {
		switch op.Type {
		case x86def.ArgImmediate:
			switch op.Size {
			case x86def.SizeByte:
				parts = append(parts, "imm8")
			case x86def.SizeWord:
				parts = append(parts, "imm16")
			case x86def.SizeDword:
				parts = append(parts, "imm32")
			case x86def.SizeQword:
				parts = append(parts, "imm64")
			case x86def.Size2Bit:
				packed = true
			default:
				return "", fmt.Errorf("%s: %w: immediate %s", inst.Name, x86def.ErrFormatNotImplemented, op)
			}
		case x86def.ArgSecondImmediate:
			switch op.Size {
			case x86def.SizeByte:
				parts = append(parts, "imm8n2")
			case x86def.SizeWord:
				parts = append(parts, "imm16n2")
			default:
				return "", fmt.Errorf("%s: %w: second immediate %s", inst.Name, x86def.ErrFormatNotImplemented, op)
			}
		}
	}

	is4 := false
	for _, op := range inst.Operands {
		if op.Type == x86def.ArgXMMRegisterInIs4 {
			is4 = true
		}
	}
	if packed && !is4 {
		return "", fmt.Errorf("%s: 2-bit immediate without an is4 register operand", inst.Name)
	}
	if is4 {
		reg := "xxxx"
		if e.bitness != 64 {
			reg = "0xxx"
		}
		low := "0000"
		if packed {
			low = "00xx"
		}
		parts = append(parts, bitPattern(reg, low))
	}

	return strings.Join(parts, " "), nil
}

func (e *emitter) displacements() (string, error) {
	inst := e.inst
	var parts []string
	for _, op := range inst.Operands {
		switch op.Type {
		case x86def.ArgAbsoluteDisp:
			if e.bitness == 64 {
				parts = append(parts, "disp64")
			} else {
				parts = append(parts, "disp32")
			}
		case x86def.ArgRelativeTarget:
			switch op.Size {
			case x86def.SizeByte:
				parts = append(parts, "rel8")
			case x86def.SizeWord:
				parts = append(parts, "rel16")
			case x86def.SizeDword:
				parts = append(parts, "rel32")
			default:
				return "", fmt.Errorf("%s: %w: relative target %s", inst.Name, x86def.ErrFormatNotImplemented, op)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

// processOperands tells the 64-bit validator how many register writes to
// check, and whether a 32-bit write clears the upper half of the register.
func (e *emitter) processOperands() string {
	zeroExtends := false
	for _, op := range e.indexed() {
		if format, err := op.Format(e.bitness); err == nil && format == "32bit" {
			zeroExtends = true
		}
	}
	if zeroExtends {
		return fmt.Sprintf("@process_%d_operands_zero_extends", e.count)
	}
	return fmt.Sprintf("@process_%d_operands", e.count)
}

func operandAction(index int, name string) string {
	return fmt.Sprintf("@operand%d_%s", index, name)
}
