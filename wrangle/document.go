package wrangle

import (
	"fmt"

	"github.com/apparentlymart/x86-meta/x86def"
)

// Document is everything that goes into one grammar document.
type Document struct {
	Options Options
	Files   []string

	Blocks []*Block
	Names  *NameRegistry
	Stats  []*FileStats
}

// Block is the grammar for one definition record: the union of the
// grammars of all of its variants.
type Block struct {
	File   string
	Record x86def.Record

	// Instruction is the parsed record with its prefixes collected.
	Instruction *x86def.Instruction
	Variants    []*x86def.Instruction

	// Grammar holds the expression for each variant, in the same order
	// as Variants.
	Grammar []string
}

// RecordError reports a problem with a single definition record.
type RecordError struct {
	File   string
	Line   int
	Record string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s (in %q)", e.File, e.Line, e.Err, e.Record)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
