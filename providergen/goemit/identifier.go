package goemit

import (
	"strings"
	"unicode"
)

// ExportedName maps a canonical callable name to an exported Go identifier:
// get_users becomes GetUsers. The result always starts with an upper-case
// letter (or "X" for a digit start), so it can never collide with a Go
// keyword. The mapping is not injective across canonical names (getUsers
// and get_users both map to GetUsers); name resolution checks uniqueness of
// the exported form.
func ExportedName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upperNext := true
	for _, r := range name {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}
	return out
}

// fileName maps a provider name to the emitted file name: UserAPI becomes
// user_api.go.
func fileName(providerName string) string {
	var b strings.Builder
	b.Grow(len(providerName) + 8)
	prevLower := false
	for _, r := range providerName {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = true
		default:
			b.WriteByte('_')
			prevLower = false
		}
	}
	return b.String() + ".go"
}
