package x86def

import (
	"strings"
	"unicode"
)

// Identifier turns an instruction name into a name usable in grammar
// action identifiers, e.g. "rep movsb" becomes "rep_movsb".
func Identifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		case unicode.IsLetter(r):
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
