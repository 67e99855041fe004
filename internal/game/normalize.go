package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks, and recomposes,
// turning e.g. "Türkiye" into "Turkiye".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical matching form of a country name:
// trimmed, lower-cased, diacritics removed. Two names refer to the same
// country exactly when their normalized forms are equal.
func Normalize(name string) string {
	s, _, err := transform.String(stripMarks, name)
	if err != nil {
		// Transform over NFD never fails on valid UTF-8; fall back to
		// the raw input rather than dropping the guess.
		s = name
	}
	return strings.ToLower(strings.TrimSpace(s))
}
