package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for stem and profile load outcomes
const (
	ResultOK               = "ok"
	ResultEmptyInput       = "empty_input"
	ResultUnknownAlgorithm = "unknown_algorithm"
	ResultLoadError        = "load_error"
	ResultError            = "error"
)

// UnregisteredAlgorithm is the algorithm label of requests naming no
// registered algorithm, so caller input never becomes a label value
const UnregisteredAlgorithm = ""

// Metrics holds the Prometheus collectors of the stemming toolkit.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	stems               *prometheus.CounterVec
	stemDuration        *prometheus.HistogramVec
	profileLoads        *prometheus.CounterVec
	profileLoadDuration *prometheus.HistogramVec
	profileEvictions    *prometheus.CounterVec
	profilesLoaded      prometheus.Gauge
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
}

// New creates the collectors under namespace and registers them, together
// with the Go runtime and process collectors, on a private registry
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ptstem"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stems_total",
			Help:      "Total number of stem requests by algorithm and result",
		}, []string{"algorithm", "result"}),
		stemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stem_duration_seconds",
			Help:      "Stem request duration in seconds",
			Buckets:   []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.01},
		}, []string{"algorithm"}),
		profileLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_loads_total",
			Help:      "Total number of profile loads by algorithm and result",
		}, []string{"algorithm", "result"}),
		profileLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "profile_load_duration_seconds",
			Help:      "Profile load and validation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"algorithm"}),
		profileEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_evictions_total",
			Help:      "Total number of cached profiles evicted",
		}, []string{"algorithm"}),
		profilesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles_loaded",
			Help:      "Number of profiles currently cached",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stem_cache_hits_total",
			Help:      "Total number of stem cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stem_cache_misses_total",
			Help:      "Total number of stem cache misses",
		}),
	}

	m.registry.MustRegister(
		m.stems,
		m.stemDuration,
		m.profileLoads,
		m.profileLoadDuration,
		m.profileEvictions,
		m.profilesLoaded,
		m.cacheHits,
		m.cacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordStem records one stem request
func (m *Metrics) RecordStem(algorithm, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stems.WithLabelValues(algorithm, result).Inc()
	if result == ResultOK {
		m.stemDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	}
}

// RecordProfileLoad records one profile load attempt
func (m *Metrics) RecordProfileLoad(algorithm, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.profileLoads.WithLabelValues(algorithm, result).Inc()
	m.profileLoadDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordProfileEviction records a cached profile being dropped
func (m *Metrics) RecordProfileEviction(algorithm string) {
	if m == nil {
		return
	}
	m.profileEvictions.WithLabelValues(algorithm).Inc()
}

// SetProfilesLoaded sets the number of cached profiles
func (m *Metrics) SetProfilesLoaded(n int) {
	if m == nil {
		return
	}
	m.profilesLoaded.Set(float64(n))
}

// RecordCacheHit records a stem cache hit
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss records a stem cache miss
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
