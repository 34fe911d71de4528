package wrangle

import (
	"fmt"

	"github.com/apparentlymart/x86-meta/x86def"
	"golang.org/x/exp/slices"
)

// NameRegistry collects the distinct instruction names used in a
// document, keyed by the identifier of their grammar action.
type NameRegistry struct {
	names map[string]string
}

func NewNameRegistry() *NameRegistry {
	return &NameRegistry{names: make(map[string]string)}
}

// Register records an instruction name. Two different names that map to
// the same identifier cannot both be registered.
func (r *NameRegistry) Register(name string) error {
	ident := x86def.Identifier(name)
	if have, ok := r.names[ident]; ok && have != name {
		return fmt.Errorf("instruction names %q and %q both map to identifier %s", have, name, ident)
	}
	r.names[ident] = name
	return nil
}

// Len returns the number of distinct names.
func (r *NameRegistry) Len() int {
	return len(r.names)
}

// Identifiers returns the registered identifiers in sorted order.
func (r *NameRegistry) Identifiers() []string {
	ret := make([]string, 0, len(r.names))
	for ident := range r.names {
		ret = append(ret, ident)
	}
	slices.Sort(ret)
	return ret
}

// Name returns the instruction name registered for an identifier.
func (r *NameRegistry) Name(ident string) string {
	return r.names[ident]
}
