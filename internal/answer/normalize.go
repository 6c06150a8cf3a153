// Package answer canonicalizes typed or transcribed romaji so that answers
// differing only in case, spacing or a known romanization variant compare
// equal.
package answer

import "strings"

// variants are applied in order, each to the output of the previous one.
var variants = []struct {
	from string
	to   string
}{
	{"shi", "si"},
	{"chi", "ti"},
	{"tsu", "tu"},
	{"fu", "hu"},
}

// Normalize lowercases text, strips every whitespace rune and folds the
// Hepburn spellings shi, chi, tsu and fu to their Kunrei forms.
func Normalize(text string) string {
	out := strings.Join(strings.Fields(strings.ToLower(text)), "")
	for _, v := range variants {
		out = strings.ReplaceAll(out, v.from, v.to)
	}
	return out
}

// Match reports whether input is an acceptable spelling of expected.
// Blank input never matches.
func Match(input, expected string) bool {
	got := Normalize(input)
	if got == "" {
		return false
	}
	return got == Normalize(expected)
}
