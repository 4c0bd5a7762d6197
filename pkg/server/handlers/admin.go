package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Health returns a health check handler
func (h *Handlers) Health(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(startTime)
		result := map[string]interface{}{
			"status": "healthy",
			"uptime": uptime.String(),
			"time":   time.Now().Format(time.RFC3339),
		}
		writeSuccess(w, result)
	}
}

// ListAlgorithms returns every registered algorithm with its load state
func (h *Handlers) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	algorithms := h.toolkit.Algorithms()
	result := map[string]interface{}{
		"algorithms": algorithms,
		"default":    h.defaultAlgorithm,
	}
	writeSuccessWithCount(w, result, len(algorithms))
}

// CacheStats returns stem cache statistics
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.toolkit.CacheStats()
	if !ok {
		writeSuccess(w, map[string]interface{}{"enabled": false})
		return
	}
	writeSuccess(w, map[string]interface{}{
		"enabled": true,
		"stats":   stats,
	})
}

// EvictProfile drops the cached profile named in the URL so the next request
// reloads its rules
func (h *Handlers) EvictProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.toolkit.Registry().IsRegistered(name) {
		h.writeError(w, &NotFoundError{Message: "algorithm not registered: " + name})
		return
	}

	evicted := h.toolkit.Evict(name)
	writeSuccess(w, map[string]interface{}{
		"algorithm": name,
		"evicted":   evicted,
	})
}
