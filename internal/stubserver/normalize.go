package stubserver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics strips diacritical marks (e.g. "Jiří" -> "Jiri") so
// report filters match names regardless of how they were typed.
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeText lowercases and strips diacritics for comparison.
func normalizeText(s string) string {
	return strings.ToLower(removeDiacritics(s))
}

// containsNormalized reports whether haystack contains needle after
// normalization.
func containsNormalized(haystack, needle string) bool {
	return strings.Contains(normalizeText(haystack), normalizeText(needle))
}
