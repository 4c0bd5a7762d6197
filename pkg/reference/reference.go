// Package reference compares rule-based profiles against the Snowball
// Portuguese stemmer.
package reference

import (
	"errors"
	"fmt"
	"sort"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/portuguese"

	"github.com/mnohosten/ptstem/pkg/stemmer"
	"github.com/mnohosten/ptstem/pkg/text"
)

// Stemmer stems a word with a named algorithm
type Stemmer interface {
	Stem(word, algorithm string) (string, error)
}

// Snowball stems word with the Snowball Portuguese algorithm. The word is
// normalized the same way the rule engine normalizes it.
func Snowball(word string) string {
	env := snowballstem.NewEnv(stemmer.Normalize(word))
	portuguese.Stem(env)
	return env.Current()
}

// Options tune a comparison
type Options struct {
	// FoldDiacritics compares stems with diacritics removed
	FoldDiacritics bool
	// MaxDisagreements caps the disagreements kept in the report (0 keeps all)
	MaxDisagreements int
}

// Disagreement is a word the two stemmers reduce differently
type Disagreement struct {
	Word      string `json:"word"`
	Stem      string `json:"stem"`
	Reference string `json:"reference"`
}

// Report summarizes a comparison
type Report struct {
	Algorithm     string         `json:"algorithm"`
	Words         int            `json:"words"`
	Agreed        int            `json:"agreed"`
	Skipped       int            `json:"skipped"`
	Disagreed     int            `json:"disagreed"`
	Disagreements []Disagreement `json:"disagreements,omitempty"`
}

// Agreement is the percentage of compared words on which both stemmers agree
func (r *Report) Agreement() float64 {
	compared := r.Words - r.Skipped
	if compared == 0 {
		return 0
	}
	return float64(r.Agreed) / float64(compared) * 100
}

// String renders a one-line summary
func (r *Report) String() string {
	return fmt.Sprintf("%s: %d words, %d skipped, %d agreed, %d disagreed (%.2f%% agreement)",
		r.Algorithm, r.Words, r.Skipped, r.Agreed, r.Disagreed, r.Agreement())
}

// Compare stems every word with algorithm and with Snowball. Words that
// are empty after normalization are skipped; any other stemming error
// aborts the comparison.
func Compare(s Stemmer, algorithm string, words []string, opts Options) (*Report, error) {
	report := &Report{Algorithm: algorithm, Words: len(words)}

	for _, word := range words {
		stem, err := s.Stem(word, algorithm)
		if err != nil {
			var empty *stemmer.EmptyInputError
			if errors.As(err, &empty) {
				report.Skipped++
				continue
			}
			return nil, err
		}
		ref := Snowball(word)

		a, b := stem, ref
		if opts.FoldDiacritics {
			a, b = text.RemoveDiacritics(a), text.RemoveDiacritics(b)
		}
		if a == b {
			report.Agreed++
			continue
		}

		report.Disagreed++
		if opts.MaxDisagreements == 0 || len(report.Disagreements) < opts.MaxDisagreements {
			report.Disagreements = append(report.Disagreements, Disagreement{
				Word:      stemmer.Normalize(word),
				Stem:      stem,
				Reference: ref,
			})
		}
	}

	sort.Slice(report.Disagreements, func(i, j int) bool {
		return report.Disagreements[i].Word < report.Disagreements[j].Word
	})
	return report, nil
}
