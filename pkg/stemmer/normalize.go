package stemmer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace, lowercases the word and composes
// it to NFC so that "a" + combining tilde and "ã" compare equal.
// Diacritics are preserved.
func Normalize(word string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(word)))
}

// runeLen is the character length used by every length guard
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
