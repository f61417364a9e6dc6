// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"maps"
	"slices"
	"strings"
	"unicode"
)

// keyAliases maps alternative spellings onto canonical keys.
var keyAliases = map[string]string{
	"app-id": "id",
}

// CanonicalKey converts a camelCase, snake_case or kebab-case key to kebab-case.
// Runs of capitals are one word: "bundleRepoURL" becomes "bundle-repo-url".
func CanonicalKey(key string) string {
	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range runes {
		switch {
		case r == '_':
			b.WriteByte('-')
		case unicode.IsUpper(r):
			if i > 0 && wordBoundary(runes, i) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	k := b.String()
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// wordBoundary reports whether the upper-case rune at i starts a new word.
func wordBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if prev == '-' || prev == '_' {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// "URLPath": the P starts a word because a lower-case rune follows.
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// CanonicalizeKeys returns a copy of raw with top-level keys converted by CanonicalKey.
// When two input keys collide, the one already in canonical form wins, then the
// lexically first. Nested values (module descriptors in particular) are left untouched.
func CanonicalizeKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if CanonicalKey(k) == k {
			out[k] = v
		}
	}
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		ck := CanonicalKey(k)
		if _, taken := out[ck]; !taken {
			out[ck] = raw[k]
		}
	}
	return out
}
