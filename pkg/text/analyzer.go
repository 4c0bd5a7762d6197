package text

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenSplitter = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Stemmer reduces a single word to its stem
type Stemmer interface {
	Stem(word string) (string, error)
}

// StemmerFunc adapts a function to the Stemmer interface
type StemmerFunc func(word string) (string, error)

// Stem calls f(word)
func (f StemmerFunc) Stem(word string) (string, error) {
	return f(word)
}

// Analyzer handles text tokenization, normalization, and stemming
type Analyzer struct {
	stopWords map[string]bool
	stemmer   Stemmer
	minLength int
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithStopWords replaces the default Portuguese stop words
func WithStopWords(words []string) AnalyzerOption {
	return func(a *Analyzer) {
		a.stopWords = make(map[string]bool, len(words))
		for _, w := range words {
			a.stopWords[strings.ToLower(w)] = true
		}
	}
}

// WithMinTokenLength drops tokens shorter than n characters (default 2)
func WithMinTokenLength(n int) AnalyzerOption {
	return func(a *Analyzer) {
		a.minLength = n
	}
}

// NewAnalyzer creates a new text analyzer with Portuguese stop words
func NewAnalyzer(stemmer Stemmer, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		stopWords: defaultStopWords(),
		stemmer:   stemmer,
		minLength: 2,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsStopWord reports whether word is filtered by the analyzer
func (a *Analyzer) IsStopWord(word string) bool {
	return a.stopWords[strings.ToLower(word)]
}

// Analyze processes text and returns the stems of its content words
func (a *Analyzer) Analyze(text string) ([]string, error) {
	positions, err := a.AnalyzeWithPositions(text)
	if err != nil {
		return nil, err
	}
	result := make([]string, len(positions))
	for i, p := range positions {
		result[i] = p.Token
	}
	return result, nil
}

// AnalyzeWithPositions returns tokens with their positions in the original text
func (a *Analyzer) AnalyzeWithPositions(text string) ([]TokenPosition, error) {
	tokens := Tokenize(text)
	var result []TokenPosition

	for position, token := range tokens {
		normalized := strings.ToLower(token)

		// Skip if too short
		if len([]rune(normalized)) < a.minLength {
			continue
		}

		// Skip stop words
		if a.stopWords[normalized] {
			continue
		}

		stemmed, err := a.stemmer.Stem(normalized)
		if err != nil {
			return nil, err
		}

		result = append(result, TokenPosition{
			Token:    stemmed,
			Original: token,
			Position: position,
		})
	}

	return result, nil
}

// TokenPosition represents a token with its position in the text
type TokenPosition struct {
	Token    string `json:"token"`
	Original string `json:"original"`
	Position int    `json:"position"`
}

// Tokenize breaks text into words on anything that is not a letter or digit
func Tokenize(text string) []string {
	parts := tokenSplitter.Split(text, -1)

	var tokens []string
	for _, part := range parts {
		if len(part) > 0 {
			tokens = append(tokens, part)
		}
	}

	return tokens
}

// SplitPhrase splits a phrase on whitespace. Punctuation stays attached to
// its word; empty tokens are skipped.
func SplitPhrase(phrase string) []string {
	return strings.Fields(phrase)
}

// IsWord checks if a rune is a letter or number
func IsWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
