package grammar

import (
	"fmt"
	"strings"

	"github.com/apparentlymart/x86-meta/x86def"
)

// GenerateLegacyPrefixes returns every ordering of legacy prefixes an
// instruction may carry: each permutation of the required prefixes
// together with any subset of the optional ones.
func GenerateLegacyPrefixes(bitness int, required, optional []x86def.Prefix) ([][]x86def.Prefix, error) {
	seen := make(map[x86def.Prefix]bool)
	for _, p := range append(append([]x86def.Prefix(nil), required...), optional...) {
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePrefix, p)
		}
		seen[p] = true
	}

	if bitness == 32 && len(required) == 1 && required[0] == x86def.PrefixData16 &&
		len(optional) == 1 && (optional[0] == x86def.PrefixRep || optional[0] == x86def.PrefixCondRep) {
		// The 32-bit validator never accepted rep/condrep together with
		// data16, so neither does the grammar.
		optional = nil
	}

	var ret [][]x86def.Prefix
	for n := 0; n <= len(optional); n++ {
		for _, chosen := range combinations(optional, n) {
			set := append(append([]x86def.Prefix(nil), required...), chosen...)
			for _, perm := range permutations(set) {
				if bitness == 32 && lockBeforeData16(perm) {
					continue
				}
				ret = append(ret, perm)
			}
		}
	}

	unique := make(map[string]bool, len(ret))
	for _, seq := range ret {
		key := prefixKey(seq)
		if unique[key] {
			return nil, fmt.Errorf("%w: sequence %q generated twice", ErrDuplicatePrefix, key)
		}
		unique[key] = true
	}

	return ret, nil
}

func lockBeforeData16(seq []x86def.Prefix) bool {
	for _, p := range seq {
		switch p {
		case x86def.PrefixLock:
			return x86def.HasPrefix(seq, x86def.PrefixData16)
		case x86def.PrefixData16:
			return false
		}
	}
	return false
}

// combinations returns the n-element subsets of ps, preserving the order
// of ps within each subset.
func combinations(ps []x86def.Prefix, n int) [][]x86def.Prefix {
	if n == 0 {
		return [][]x86def.Prefix{nil}
	}
	var ret [][]x86def.Prefix
	for i := 0; i <= len(ps)-n; i++ {
		for _, rest := range combinations(ps[i+1:], n-1) {
			ret = append(ret, append([]x86def.Prefix{ps[i]}, rest...))
		}
	}
	return ret
}

// permutations returns every ordering of ps, in lexicographic order of
// the positions in ps.
func permutations(ps []x86def.Prefix) [][]x86def.Prefix {
	if len(ps) == 0 {
		return [][]x86def.Prefix{{}}
	}
	var ret [][]x86def.Prefix
	for i, first := range ps {
		rest := make([]x86def.Prefix, 0, len(ps)-1)
		rest = append(rest, ps[:i]...)
		rest = append(rest, ps[i+1:]...)
		for _, perm := range permutations(rest) {
			ret = append(ret, append([]x86def.Prefix{first}, perm...))
		}
	}
	return ret
}

func prefixKey(seq []x86def.Prefix) string {
	parts := make([]string, len(seq))
	for i, p := range seq {
		parts[i] = string(p)
	}
	return strings.Join(parts, " ")
}
