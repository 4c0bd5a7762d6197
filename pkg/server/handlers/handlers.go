package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/stemmer"
	"github.com/mnohosten/ptstem/pkg/text"
	"github.com/mnohosten/ptstem/pkg/toolkit"
)

// Handlers holds the toolkit and provides HTTP handlers
type Handlers struct {
	toolkit          *toolkit.Toolkit
	defaultAlgorithm string
	analyzerOpts     []text.AnalyzerOption
	logger           *slog.Logger
}

// Option configures Handlers
type Option func(*Handlers)

// WithAnalyzerOptions sets the options of analyzers built for /_analyze
func WithAnalyzerOptions(opts ...text.AnalyzerOption) Option {
	return func(h *Handlers) {
		h.analyzerOpts = opts
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a new Handlers instance. Requests that do not name an
// algorithm use defaultAlgorithm.
func New(tk *toolkit.Toolkit, defaultAlgorithm string, opts ...Option) *Handlers {
	h := &Handlers{
		toolkit:          tk,
		defaultAlgorithm: defaultAlgorithm,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// algorithm returns name or the default algorithm when name is empty
func (h *Handlers) algorithm(name string) string {
	if name == "" {
		return h.defaultAlgorithm
	}
	return name
}

// parseJSONBody parses JSON request body into target interface
func parseJSONBody(r *http.Request, target interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &RequestTooLargeError{Limit: tooLarge.Limit}
		}
		return &BadRequestError{Message: "failed to read request body"}
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return &BadRequestError{Message: "request body is empty"}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &BadRequestError{Message: "invalid JSON: " + err.Error()}
	}

	return nil
}

// Error types for consistent error handling

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type RequestTooLargeError struct {
	Limit int64
}

func (e *RequestTooLargeError) Error() string {
	return "request body too large"
}

type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return e.Message
}

// Status returns the HTTP status code and error type name for err
func Status(err error) (int, string) {
	var (
		badRequest  *BadRequestError
		notFound    *NotFoundError
		tooLarge    *RequestTooLargeError
		emptyInput  *stemmer.EmptyInputError
		unknown     *registry.UnknownAlgorithmError
		profileLoad *registry.ProfileLoadError
	)

	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, "BadRequest"
	case errors.As(err, &emptyInput):
		return http.StatusBadRequest, "EmptyInput"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NotFound"
	case errors.As(err, &unknown):
		return http.StatusNotFound, "UnknownAlgorithm"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "RequestTooLarge"
	case errors.As(err, &profileLoad):
		return http.StatusInternalServerError, "ProfileLoad"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

// writeError writes an error response with appropriate HTTP status code
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	statusCode, errorType := Status(err)
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", slog.String("error", err.Error()))
	}

	response := map[string]interface{}{
		"ok":      false,
		"error":   errorType,
		"message": err.Error(),
		"code":    statusCode,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, result interface{}) {
	response := map[string]interface{}{
		"ok":     true,
		"result": result,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// writeSuccessWithCount writes a success response with count
func writeSuccessWithCount(w http.ResponseWriter, result interface{}, count int) {
	response := map[string]interface{}{
		"ok":     true,
		"result": result,
		"count":  count,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
