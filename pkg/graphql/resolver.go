package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/mnohosten/ptstem/pkg/toolkit"
)

// Resolver handles GraphQL query resolution
type Resolver struct {
	toolkit          *toolkit.Toolkit
	defaultAlgorithm string
}

// NewResolver creates a new Resolver instance
func NewResolver(tk *toolkit.Toolkit, defaultAlgorithm string) *Resolver {
	return &Resolver{toolkit: tk, defaultAlgorithm: defaultAlgorithm}
}

// algorithm returns the algorithm argument or the default
func (r *Resolver) algorithm(p graphql.ResolveParams) string {
	if name, ok := p.Args["algorithm"].(string); ok && name != "" {
		return name
	}
	return r.defaultAlgorithm
}

// Stem resolves the stem query
func (r *Resolver) Stem(p graphql.ResolveParams) (interface{}, error) {
	word, ok := p.Args["word"].(string)
	if !ok {
		return nil, fmt.Errorf("word is required")
	}
	return r.toolkit.Stem(word, r.algorithm(p))
}

// StemAll resolves the stemAll query
func (r *Resolver) StemAll(p graphql.ResolveParams) (interface{}, error) {
	rawWords, ok := p.Args["words"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("words is required")
	}

	words := make([]string, len(rawWords))
	for i, w := range rawWords {
		s, ok := w.(string)
		if !ok {
			return nil, fmt.Errorf("words[%d] must be a string", i)
		}
		words[i] = s
	}

	stems, err := r.toolkit.StemAll(words, r.algorithm(p))
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, len(words))
	for i := range words {
		results[i] = map[string]interface{}{
			"word": words[i],
			"stem": stems[i],
		}
	}
	return results, nil
}

// StemPhrase resolves the stemPhrase query
func (r *Resolver) StemPhrase(p graphql.ResolveParams) (interface{}, error) {
	text, ok := p.Args["text"].(string)
	if !ok {
		return nil, fmt.Errorf("text is required")
	}
	return r.toolkit.StemPhrase(text, r.algorithm(p))
}

// Algorithms resolves the algorithms query
func (r *Resolver) Algorithms(p graphql.ResolveParams) (interface{}, error) {
	infos := r.toolkit.Algorithms()
	result := make([]map[string]interface{}, len(infos))
	for i, info := range infos {
		result[i] = map[string]interface{}{
			"name":   info.Name,
			"loaded": info.Loaded,
		}
	}
	return result, nil
}

// Explain resolves the explain query
func (r *Resolver) Explain(p graphql.ResolveParams) (interface{}, error) {
	word, ok := p.Args["word"].(string)
	if !ok {
		return nil, fmt.Errorf("word is required")
	}

	exp, err := r.toolkit.Explain(word, r.algorithm(p))
	if err != nil {
		return nil, err
	}

	steps := make([]map[string]interface{}, len(exp.Steps))
	for i, st := range exp.Steps {
		steps[i] = map[string]interface{}{
			"step":    st.Step,
			"input":   st.Input,
			"output":  st.Output,
			"matched": st.Matched,
			"suffix":  st.Suffix,
		}
	}

	return map[string]interface{}{
		"algorithm":         exp.Algorithm,
		"profile":           exp.Profile,
		"input":             exp.Input,
		"stem":              exp.Stem,
		"exception":         exp.Exception,
		"ignored":           exp.Ignored,
		"diacriticsRemoved": exp.DiacriticsRemoved,
		"steps":             steps,
	}, nil
}

// CacheStats resolves the cacheStats query. It is null when the cache is disabled.
func (r *Resolver) CacheStats(p graphql.ResolveParams) (interface{}, error) {
	stats, ok := r.toolkit.CacheStats()
	if !ok {
		return nil, nil
	}
	return map[string]interface{}{
		"capacity":  stats.Capacity,
		"size":      stats.Size,
		"hits":      int(stats.Hits),
		"misses":    int(stats.Misses),
		"evictions": int(stats.Evictions),
		"hitRate":   stats.HitRate,
	}, nil
}
