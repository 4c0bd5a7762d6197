package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mnohosten/ptstem/pkg/metrics"
	"github.com/mnohosten/ptstem/pkg/stemmer"
	"golang.org/x/sync/singleflight"
)

// Loader materializes a profile definition from its source representation
type Loader interface {
	Load() (stemmer.Definition, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func() (stemmer.Definition, error)

// Load calls f
func (f LoaderFunc) Load() (stemmer.Definition, error) {
	return f()
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for load events
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// registration gives every Register call a distinct identity
type registration struct {
	loader Loader
	gen    uint64 // bumped by Evict so in-flight loads do not cache stale data
}

// Registry maps algorithm names to lazily loaded, cached profiles.
// Names are case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	loaders  map[string]*registration
	profiles map[string]*stemmer.Profile

	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		loaders:  make(map[string]*registration),
		profiles: make(map[string]*stemmer.Profile),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Canonical is the registry key for an algorithm name
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a loader for name. Nothing is loaded until the first Resolve.
func (r *Registry) Register(name string, loader Loader) error {
	key := Canonical(name)
	if key == "" {
		return fmt.Errorf("algorithm name is empty")
	}
	if loader == nil {
		return fmt.Errorf("nil loader for algorithm %q", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[key]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, key)
	}
	r.loaders[key] = &registration{loader: loader}
	return nil
}

// Resolve returns the profile for name, loading and validating it on first use.
// Concurrent first requests for the same name share a single load.
func (r *Registry) Resolve(name string) (*stemmer.Profile, error) {
	key := Canonical(name)

	r.mu.RLock()
	profile, cached := r.profiles[key]
	reg, known := r.loaders[key]
	r.mu.RUnlock()

	if cached {
		return profile, nil
	}
	if !known {
		return nil, &UnknownAlgorithmError{Name: name, Available: r.Names()}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		// a concurrent flight may have finished between our check and Do
		r.mu.RLock()
		p, ok := r.profiles[key]
		r.mu.RUnlock()
		if ok {
			return p, nil
		}
		return r.load(key, reg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stemmer.Profile), nil
}

// load runs the loader and validation. Failed loads are never cached.
func (r *Registry) load(key string, reg *registration) (*stemmer.Profile, error) {
	start := time.Now()

	r.mu.RLock()
	gen := reg.gen
	r.mu.RUnlock()

	def, err := reg.loader.Load()
	if err == nil {
		if def.Name == "" {
			def.Name = key
		}
		var profile *stemmer.Profile
		profile, err = stemmer.NewProfile(def)
		if err == nil {
			r.mu.Lock()
			// the loader may have been unregistered or evicted while loading
			if current, ok := r.loaders[key]; ok && current == reg && reg.gen == gen {
				r.profiles[key] = profile
			}
			loaded := len(r.profiles)
			r.mu.Unlock()

			elapsed := time.Since(start)
			r.metrics.RecordProfileLoad(key, metrics.ResultOK, elapsed)
			r.metrics.SetProfilesLoaded(loaded)
			r.logger.Debug("Loaded stemming profile",
				slog.String("algorithm", key),
				slog.Int("steps", profile.StepCount()),
				slog.Int("rules", profile.RuleCount()),
				slog.Int("exceptions", profile.Exceptions().Len()),
				slog.Duration("duration", elapsed))
			return profile, nil
		}
	}

	r.metrics.RecordProfileLoad(key, metrics.ResultLoadError, time.Since(start))
	r.logger.Warn("Failed to load stemming profile",
		slog.String("algorithm", key),
		slog.String("error", err.Error()))
	return nil, &ProfileLoadError{Name: key, Err: err}
}

// Names returns the sorted names of all registered algorithms, loaded or not
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name has a loader
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaders[Canonical(name)]
	return ok
}

// IsLoaded reports whether the profile for name is cached
func (r *Registry) IsLoaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.profiles[Canonical(name)]
	return ok
}

// Evict drops the cached profile for name so the next Resolve reloads it.
// It reports whether a profile was cached.
func (r *Registry) Evict(name string) bool {
	key := Canonical(name)

	r.mu.Lock()
	_, ok := r.profiles[key]
	delete(r.profiles, key)
	if reg, registered := r.loaders[key]; registered {
		reg.gen++
	}
	loaded := len(r.profiles)
	r.mu.Unlock()
	r.group.Forget(key)

	if ok {
		r.metrics.RecordProfileEviction(key)
		r.metrics.SetProfilesLoaded(loaded)
		r.logger.Debug("Evicted stemming profile", slog.String("algorithm", key))
	}
	return ok
}

// Unregister removes the loader and any cached profile for name
func (r *Registry) Unregister(name string) bool {
	key := Canonical(name)

	r.mu.Lock()
	_, ok := r.loaders[key]
	delete(r.loaders, key)
	delete(r.profiles, key)
	loaded := len(r.profiles)
	r.mu.Unlock()
	r.group.Forget(key)

	r.metrics.SetProfilesLoaded(loaded)
	return ok
}

// Preload resolves every registered algorithm and returns the load errors joined
func (r *Registry) Preload() error {
	var errs []error
	for _, name := range r.Names() {
		if _, err := r.Resolve(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
