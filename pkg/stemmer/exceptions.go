package stemmer

import (
	"fmt"
	"sort"
)

// Exception maps a whole word to a literal stem
type Exception struct {
	Word string
	Stem string
}

// ExceptionTable is a read-only word -> stem override table
type ExceptionTable struct {
	entries map[string]string
}

// newExceptionTable builds the table, rejecting empty and duplicate keys.
// Keys are normalized, so words differing only in case collide.
func newExceptionTable(profile string, exceptions []Exception) (*ExceptionTable, error) {
	t := &ExceptionTable{entries: make(map[string]string, len(exceptions))}
	for i, e := range exceptions {
		key := Normalize(e.Word)
		if key == "" {
			return nil, &ValidationError{Profile: profile, Rule: -1, Reason: fmt.Sprintf("exception %d has an empty word", i)}
		}
		if e.Stem == "" {
			return nil, &ValidationError{Profile: profile, Rule: -1, Reason: fmt.Sprintf("exception for %q has an empty stem", key)}
		}
		if _, dup := t.entries[key]; dup {
			return nil, &ValidationError{Profile: profile, Rule: -1, Reason: fmt.Sprintf("duplicate exception key %q", key)}
		}
		t.entries[key] = e.Stem
	}
	return t, nil
}

// Lookup returns the stem for a normalized word
func (t *ExceptionTable) Lookup(word string) (string, bool) {
	if t == nil {
		return "", false
	}
	stem, ok := t.entries[word]
	return stem, ok
}

// Len returns the number of exceptions
func (t *ExceptionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Words returns the exception keys in sorted order
func (t *ExceptionTable) Words() []string {
	if t == nil {
		return nil
	}
	words := make([]string, 0, len(t.entries))
	for w := range t.entries {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
