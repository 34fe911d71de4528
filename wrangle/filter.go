package wrangle

import (
	"fmt"

	"github.com/apparentlymart/x86-meta/grammar"
	"github.com/apparentlymart/x86-meta/x86def"
	"github.com/gobwas/glob"
)

// selector decides which instructions belong in a document.
type selector struct {
	bitness   int
	forbidden []x86def.Attribute
	pattern   glob.Glob
}

func newSelector(opts Options) (*selector, error) {
	if opts.Bitness != 32 && opts.Bitness != 64 {
		return nil, fmt.Errorf("unsupported bitness %d", int(opts.Bitness))
	}

	sel := &selector{bitness: int(opts.Bitness)}
	if opts.Mode == grammar.Validator {
		sel.forbidden = append(sel.forbidden, x86def.AttrNaClForbidden)
		switch opts.Bitness {
		case 32:
			sel.forbidden = append(sel.forbidden, x86def.AttrNaClIA32Forbidden)
		case 64:
			sel.forbidden = append(sel.forbidden, x86def.AttrNaClAMD64Forbidden)
		}
	}

	if opts.Filter != "" {
		g, err := glob.Compile(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid instruction filter %q: %w", opts.Filter, err)
		}
		sel.pattern = g
	}

	return sel, nil
}

// Selects reports whether the instruction is emitted.
func (s *selector) Selects(inst *x86def.Instruction) bool {
	if !inst.ModeAllowed(s.bitness) {
		return false
	}
	for _, a := range s.forbidden {
		if inst.HasAttribute(a) {
			return false
		}
	}
	if s.pattern != nil && !s.pattern.Match(inst.Name) {
		return false
	}
	return true
}
