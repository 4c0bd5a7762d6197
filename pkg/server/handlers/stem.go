package handlers

import (
	"net/http"

	"github.com/mnohosten/ptstem/pkg/text"
)

// StemRequest is the body of POST /_stem
type StemRequest struct {
	Algorithm string   `json:"algorithm"`
	Words     []string `json:"words"`
}

// StemResult pairs a word with its stem
type StemResult struct {
	Word string `json:"word"`
	Stem string `json:"stem"`
}

// AnalyzeRequest is the body of POST /_analyze
type AnalyzeRequest struct {
	Algorithm string `json:"algorithm"`
	Text      string `json:"text"`
}

// StemWord stems the word query parameter
func (h *Handlers) StemWord(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	algorithm := h.algorithm(r.URL.Query().Get("algorithm"))

	stem, err := h.toolkit.Stem(word, algorithm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeSuccess(w, map[string]interface{}{
		"algorithm": algorithm,
		"word":      word,
		"stem":      stem,
	})
}

// StemWords stems a batch of words in order. The first failure aborts the batch.
func (h *Handlers) StemWords(w http.ResponseWriter, r *http.Request) {
	var req StemRequest
	if err := parseJSONBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if len(req.Words) == 0 {
		h.writeError(w, &BadRequestError{Message: "words must not be empty"})
		return
	}

	algorithm := h.algorithm(req.Algorithm)
	stems, err := h.toolkit.StemAll(req.Words, algorithm)
	if err != nil {
		h.writeError(w, err)
		return
	}

	results := make([]StemResult, len(req.Words))
	for i, word := range req.Words {
		results[i] = StemResult{Word: word, Stem: stems[i]}
	}
	writeSuccessWithCount(w, map[string]interface{}{
		"algorithm": algorithm,
		"stems":     results,
	}, len(results))
}

// Explain returns the step by step trace of stemming the word query parameter
func (h *Handlers) Explain(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	algorithm := h.algorithm(r.URL.Query().Get("algorithm"))

	exp, err := h.toolkit.Explain(word, algorithm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeSuccess(w, exp)
}

// Analyze tokenizes text, drops stop words and stems the rest
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := parseJSONBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	algorithm := h.algorithm(req.Algorithm)
	// Resolve up front so an unknown algorithm fails even for text with no content words
	if _, err := h.toolkit.Registry().Resolve(algorithm); err != nil {
		h.writeError(w, err)
		return
	}

	analyzer := h.toolkit.NewAnalyzer(algorithm, h.analyzerOpts...)
	tokens, err := analyzer.AnalyzeWithPositions(req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tokens == nil {
		tokens = []text.TokenPosition{}
	}

	writeSuccessWithCount(w, map[string]interface{}{
		"algorithm": algorithm,
		"tokens":    tokens,
	}, len(tokens))
}
