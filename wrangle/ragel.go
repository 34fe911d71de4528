package wrangle

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// WriteGrammar writes the complete ragel document.
func (d *Document) WriteGrammar(w io.Writer) error {
	var b strings.Builder

	bases := make([]string, len(d.Files))
	for i, f := range d.Files {
		bases[i] = filepath.Base(f)
	}
	fmt.Fprintf(&b, "# Generated by x86-meta from %s. DO NOT EDIT.\n", strings.Join(bases, ", "))
	fmt.Fprintf(&b, "# Mode: %s, bitness: %d.\n", d.Options.Mode, int(d.Options.Bitness))
	b.WriteString("\n")
	b.WriteString("%%{\n")
	b.WriteString("  machine one_instruction;\n")
	b.WriteString("\n")

	for _, ident := range d.Names.Identifiers() {
		fmt.Fprintf(&b, "  action instruction_%s { SET_INSTRUCTION_NAME(%q); }\n", ident, d.Names.Name(ident))
	}
	b.WriteString("\n")

	b.WriteString("  one_instruction =\n")
	for i, block := range d.Blocks {
		fmt.Fprintf(&b, "    # %s\n", block.Record.Text)
		b.WriteString("    ")
		b.WriteString(block.String())
		if i < len(d.Blocks)-1 {
			b.WriteString(" |\n")
		} else {
			b.WriteString(";\n")
		}
	}
	b.WriteString("}%%\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the union of the block's variant grammars.
func (b *Block) String() string {
	return "(" + strings.Join(b.Grammar, " |\n     ") + ")"
}
