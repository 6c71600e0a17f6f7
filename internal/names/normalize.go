package names

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips diacritics and periods, and collapses
// whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(strings.ToLower(out), ".", " ")
	return strings.Join(strings.Fields(out), " ")
}

func lastName(normalized string) string {
	if i := strings.LastIndexByte(normalized, ' '); i >= 0 {
		return normalized[i+1:]
	}
	return normalized
}

func firstInitial(normalized string) (byte, bool) {
	if !strings.Contains(normalized, " ") || normalized == "" {
		return 0, false
	}
	return normalized[0], true
}

// Ratio returns the difflib similarity of a and b, compared rune by rune:
// 2*M/T where M counts matched runes and T is the total length.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
