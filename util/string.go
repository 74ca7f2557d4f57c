package util

import (
	"strings"
	"unicode"
)

// MangledIdentFrom returns a deterministic valid Go identifier for a signature key like f(List[Integer],String)
//
// Distinct keys that only differ in punctuation can collide, so callers that need uniqueness
// must check the result against the names they already produced.
func MangledIdentFrom(key string) string {
	sb := &strings.Builder{}
	lastUnderscore := false
	for i, r := range key {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) && i > 0:
			sb.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && sb.Len() > 0:
			sb.WriteRune('_')
			lastUnderscore = true
		}
	}
	ident := strings.TrimSuffix(sb.String(), "_")
	if ident == "" {
		return "_"
	}
	return ident
}
