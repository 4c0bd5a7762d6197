// Package toolkit is the public face of the stemmer: it resolves algorithms
// by name through a registry and layers the optional conveniences (ignore
// list, stem cache, diacritic removal, phrase stemming) over the engine.
package toolkit

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mnohosten/ptstem/pkg/cache"
	"github.com/mnohosten/ptstem/pkg/metrics"
	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/stemmer"
	"github.com/mnohosten/ptstem/pkg/text"
)

// Option configures a Toolkit
type Option func(*Toolkit)

// WithCache enables an LRU stem cache of size entries. A ttl of 0 keeps
// entries until evicted.
func WithCache(size int, ttl time.Duration) Option {
	return func(t *Toolkit) {
		if size > 0 {
			t.cache = cache.NewLRUCache(size, ttl)
		}
	}
}

// WithIgnore adds words that are returned unchanged (after normalization)
func WithIgnore(words ...string) Option {
	return func(t *Toolkit) {
		t.addIgnore(words)
	}
}

// WithDiacriticRemoval strips diacritics from every produced stem
func WithDiacriticRemoval(enabled bool) Option {
	return func(t *Toolkit) {
		t.removeDiacritics = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Toolkit) {
		t.metrics = m
	}
}

// Toolkit stems words with any algorithm known to its registry.
// It is safe for concurrent use.
type Toolkit struct {
	registry *registry.Registry
	engine   *stemmer.Engine
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu               sync.RWMutex
	ignore           map[string]struct{}
	cache            *cache.LRUCache
	removeDiacritics bool
}

// AlgorithmInfo describes a registered algorithm
type AlgorithmInfo struct {
	Name   string `json:"name"`
	Loaded bool   `json:"loaded"`
}

// Explanation is an engine trace plus what the toolkit did around it
type Explanation struct {
	stemmer.Trace
	Algorithm         string `json:"algorithm"`
	Ignored           bool   `json:"ignored,omitempty"`
	DiacriticsRemoved bool   `json:"diacritics_removed,omitempty"`
}

// New creates a toolkit over reg
func New(reg *registry.Registry, opts ...Option) *Toolkit {
	t := &Toolkit{
		registry: reg,
		engine:   stemmer.NewEngine(),
		logger:   slog.Default(),
		ignore:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Registry returns the registry the toolkit resolves algorithms from
func (t *Toolkit) Registry() *registry.Registry {
	return t.registry
}

// Stem reduces word to its stem with the named algorithm.
//
// It fails with *stemmer.EmptyInputError, *registry.UnknownAlgorithmError or
// *registry.ProfileLoadError.
func (t *Toolkit) Stem(word, algorithm string) (string, error) {
	start := time.Now()
	name := registry.Canonical(algorithm)

	normalized := stemmer.Normalize(word)
	if normalized == "" {
		t.metrics.RecordStem(t.metricLabel(name), metrics.ResultEmptyInput, time.Since(start))
		return "", &stemmer.EmptyInputError{Input: word}
	}

	profile, err := t.registry.Resolve(name)
	if err != nil {
		t.metrics.RecordStem(t.metricLabel(name), resultOf(err), time.Since(start))
		return "", err
	}

	t.mu.RLock()
	_, ignored := t.ignore[normalized]
	c := t.cache
	strip := t.removeDiacritics
	t.mu.RUnlock()

	if ignored {
		t.metrics.RecordStem(name, metrics.ResultOK, time.Since(start))
		return normalized, nil
	}

	key := cache.Key(name, normalized)
	if c != nil {
		if stem, ok := c.Get(key); ok {
			t.metrics.RecordCacheHit()
			t.metrics.RecordStem(name, metrics.ResultOK, time.Since(start))
			return stem, nil
		}
		t.metrics.RecordCacheMiss()
	}

	stem, err := t.engine.Stem(normalized, profile)
	if err != nil {
		t.metrics.RecordStem(name, resultOf(err), time.Since(start))
		return "", err
	}
	if strip {
		stem = text.RemoveDiacritics(stem)
	}

	if c != nil {
		c.Put(key, stem)
	}
	t.metrics.RecordStem(name, metrics.ResultOK, time.Since(start))
	return stem, nil
}

// StemPhrase splits phrase on whitespace and stems every token in order.
// The first failure aborts the phrase.
func (t *Toolkit) StemPhrase(phrase, algorithm string) ([]string, error) {
	tokens := text.SplitPhrase(phrase)
	stems := make([]string, 0, len(tokens))
	for _, token := range tokens {
		stem, err := t.Stem(token, algorithm)
		if err != nil {
			return nil, err
		}
		stems = append(stems, stem)
	}
	return stems, nil
}

// StemAll stems each word in order. The first failure aborts.
func (t *Toolkit) StemAll(words []string, algorithm string) ([]string, error) {
	stems := make([]string, len(words))
	for i, w := range words {
		stem, err := t.Stem(w, algorithm)
		if err != nil {
			return nil, err
		}
		stems[i] = stem
	}
	return stems, nil
}

// Explain runs word through the named algorithm and reports every step.
// The cache is bypassed.
func (t *Toolkit) Explain(word, algorithm string) (*Explanation, error) {
	name := registry.Canonical(algorithm)

	normalized := stemmer.Normalize(word)
	if normalized == "" {
		return nil, &stemmer.EmptyInputError{Input: word}
	}

	profile, err := t.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	_, ignored := t.ignore[normalized]
	strip := t.removeDiacritics
	t.mu.RUnlock()

	if ignored {
		return &Explanation{
			Trace:     stemmer.Trace{Profile: profile.Name(), Input: normalized, Stem: normalized},
			Algorithm: name,
			Ignored:   true,
		}, nil
	}

	trace, err := t.engine.Explain(normalized, profile)
	if err != nil {
		return nil, err
	}

	exp := &Explanation{Trace: *trace, Algorithm: name}
	if strip {
		exp.Stem = text.RemoveDiacritics(exp.Stem)
		exp.DiacriticsRemoved = true
	}
	return exp, nil
}

// ListAlgorithms returns the sorted names of every registered algorithm,
// loaded or not
func (t *Toolkit) ListAlgorithms() []string {
	return t.registry.Names()
}

// Algorithms returns every registered algorithm with its load state
func (t *Toolkit) Algorithms() []AlgorithmInfo {
	names := t.registry.Names()
	infos := make([]AlgorithmInfo, len(names))
	for i, name := range names {
		infos[i] = AlgorithmInfo{Name: name, Loaded: t.registry.IsLoaded(name)}
	}
	return infos
}

// Evict drops the cached profile of algorithm and every stem cached for it,
// so the next request reloads the rules. It reports whether a profile was loaded.
func (t *Toolkit) Evict(algorithm string) bool {
	name := registry.Canonical(algorithm)
	evicted := t.registry.Evict(name)

	t.mu.RLock()
	c := t.cache
	t.mu.RUnlock()
	if c != nil {
		if n := c.Purge(name); n > 0 {
			t.logger.Debug("Purged cached stems", slog.String("algorithm", name), slog.Int("count", n))
		}
	}
	return evicted
}

// NewAnalyzer returns a text analyzer that stems with algorithm
func (t *Toolkit) NewAnalyzer(algorithm string, opts ...text.AnalyzerOption) *text.Analyzer {
	return text.NewAnalyzer(text.StemmerFunc(func(word string) (string, error) {
		return t.Stem(word, algorithm)
	}), opts...)
}

// Ignore adds words that are returned unchanged
func (t *Toolkit) Ignore(words ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addIgnore(words)
}

func (t *Toolkit) addIgnore(words []string) {
	for _, w := range words {
		if n := stemmer.Normalize(w); n != "" {
			t.ignore[n] = struct{}{}
		}
	}
}

// ClearIgnore empties the ignore list
func (t *Toolkit) ClearIgnore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ignore = make(map[string]struct{})
}

// IsIgnored reports whether word is on the ignore list
func (t *Toolkit) IsIgnored(word string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.ignore[stemmer.Normalize(word)]
	return ok
}

// IgnoredWords returns the ignore list, sorted
func (t *Toolkit) IgnoredWords() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	words := make([]string, 0, len(t.ignore))
	for w := range t.ignore {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// EnableCache replaces the stem cache with an empty one of size entries
func (t *Toolkit) EnableCache(size int, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size <= 0 {
		t.cache = nil
		return
	}
	t.cache = cache.NewLRUCache(size, ttl)
}

// DisableCache drops the stem cache
func (t *Toolkit) DisableCache() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = nil
}

// CacheEnabled reports whether stems are cached
func (t *Toolkit) CacheEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cache != nil
}

// CacheStats returns cache statistics; ok is false when caching is disabled
func (t *Toolkit) CacheStats() (stats cache.Stats, ok bool) {
	t.mu.RLock()
	c := t.cache
	t.mu.RUnlock()
	if c == nil {
		return cache.Stats{}, false
	}
	return c.Stats(), true
}

// CleanupCache removes expired stems and returns how many were dropped
func (t *Toolkit) CleanupCache() int {
	t.mu.RLock()
	c := t.cache
	t.mu.RUnlock()
	if c == nil {
		return 0
	}
	return c.CleanupExpired()
}

// SetDiacriticRemoval toggles diacritic removal on produced stems. A change
// clears the stem cache.
func (t *Toolkit) SetDiacriticRemoval(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.removeDiacritics == enabled {
		return
	}
	t.removeDiacritics = enabled
	if t.cache != nil {
		t.cache.Clear()
	}
}

// metricLabel bounds the algorithm label to registered names
func (t *Toolkit) metricLabel(name string) string {
	if t.registry.IsRegistered(name) {
		return name
	}
	return metrics.UnregisteredAlgorithm
}

func resultOf(err error) string {
	var empty *stemmer.EmptyInputError
	var unknown *registry.UnknownAlgorithmError
	var load *registry.ProfileLoadError
	switch {
	case errors.As(err, &empty):
		return metrics.ResultEmptyInput
	case errors.As(err, &unknown):
		return metrics.ResultUnknownAlgorithm
	case errors.As(err, &load):
		return metrics.ResultLoadError
	default:
		return metrics.ResultError
	}
}

// IsUserError reports whether err is a per-call validation defect (empty
// word or unknown algorithm) rather than a configuration defect
func IsUserError(err error) bool {
	var empty *stemmer.EmptyInputError
	var unknown *registry.UnknownAlgorithmError
	return errors.As(err, &empty) || errors.As(err, &unknown)
}
