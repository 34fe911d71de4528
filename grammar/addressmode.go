package grammar

// AddressMode describes one way a ModRM (and SIB) byte can address memory.
// Name is the grammar machine that matches the ModRM, SIB and displacement
// bytes of that form.
type AddressMode struct {
	Name string

	// XMatters and BMatters say whether REX.X and REX.B select registers
	// in this form.
	XMatters bool
	BMatters bool
}

// AddressModes are the memory forms every memory operand is emitted with.
var AddressModes = []AddressMode{
	{Name: "operand_disp", XMatters: false, BMatters: true},
	{Name: "operand_rip", XMatters: false, BMatters: false},
	{Name: "single_register_memory", XMatters: false, BMatters: true},
	{Name: "operand_sib_pure_index", XMatters: true, BMatters: false},
	{Name: "operand_sib_base_index", XMatters: true, BMatters: true},
}
