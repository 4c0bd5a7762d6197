package stemmer

import "strings"

// Rule is a single suffix replacement directive
type Rule struct {
	Suffix        string
	MinStemLength int
	Replacement   string
	exceptions    map[string]struct{}
}

// NewRule creates a rule. Exception words are normalized before being stored.
func NewRule(suffix string, minStemLength int, replacement string, exceptions ...string) Rule {
	r := Rule{
		Suffix:        Normalize(suffix),
		MinStemLength: minStemLength,
		Replacement:   replacement,
	}
	if len(exceptions) > 0 {
		r.exceptions = make(map[string]struct{}, len(exceptions))
		for _, w := range exceptions {
			r.exceptions[Normalize(w)] = struct{}{}
		}
	}
	return r
}

// IsCatchAll reports whether the rule has an empty suffix and so matches any word
func (r Rule) IsCatchAll() bool {
	return r.Suffix == ""
}

// IsException reports whether word is listed in the rule's exceptions
func (r Rule) IsException(word string) bool {
	_, ok := r.exceptions[word]
	return ok
}

// Exceptions returns the rule's exception words in no particular order
func (r Rule) Exceptions() []string {
	words := make([]string, 0, len(r.exceptions))
	for w := range r.exceptions {
		words = append(words, w)
	}
	return words
}

// Matches reports whether the rule applies to an already normalized word
func (r Rule) Matches(word string) bool {
	if !strings.HasSuffix(word, r.Suffix) {
		return false
	}
	if r.IsException(word) {
		return false
	}
	return runeLen(word)-runeLen(r.Suffix) >= r.MinStemLength
}

// Apply strips the suffix and appends the replacement.
// The caller must have checked Matches; length is not re-checked after replacement.
func (r Rule) Apply(word string) string {
	return word[:len(word)-len(r.Suffix)] + r.Replacement
}
