// Package server exposes a stemming toolkit over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mnohosten/ptstem/pkg/auth"
	"github.com/mnohosten/ptstem/pkg/config"
	gql "github.com/mnohosten/ptstem/pkg/graphql"
	"github.com/mnohosten/ptstem/pkg/metrics"
	"github.com/mnohosten/ptstem/pkg/server/handlers"
	"github.com/mnohosten/ptstem/pkg/text"
	"github.com/mnohosten/ptstem/pkg/toolkit"
)

// requestTimeout bounds every non-streaming request
const requestTimeout = 60 * time.Second

// Server represents the HTTP server of the stemming toolkit
type Server struct {
	config    *config.Config
	toolkit   *toolkit.Toolkit
	router    *chi.Mux
	httpSrv   *http.Server
	startTime time.Time
	metrics   *metrics.Metrics
	streams   *handlers.StreamManager
	guard     *auth.Guard
	logger    *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithMetrics serves m on /_metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new HTTP server instance over tk
func New(cfg *config.Config, tk *toolkit.Toolkit, opts ...Option) (*Server, error) {
	sc := cfg.Server

	// Validate TLS configuration
	if sc.EnableTLS {
		if sc.TLSCertFile == "" || sc.TLSKeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but certificate or key file not specified")
		}
		if _, err := os.Stat(sc.TLSCertFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS certificate file not found: %s", sc.TLSCertFile)
		}
		if _, err := os.Stat(sc.TLSKeyFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS key file not found: %s", sc.TLSKeyFile)
		}
	}

	streamOpts := []handlers.StreamOption{
		handlers.WithReadLimit(sc.MaxRequestSize),
		handlers.WithAllowedOrigins(sc.AllowedOrigins),
	}
	srv := &Server{
		config:    cfg,
		toolkit:   tk,
		router:    chi.NewRouter(),
		startTime: time.Now(),
		streams:   handlers.NewStreamManager(0, streamOpts...),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	guard, err := auth.NewGuard(sc.AdminTokenHash, srv.logger)
	if err != nil {
		return nil, fmt.Errorf("invalid admin token hash: %w", err)
	}
	srv.guard = guard

	analyzerOpts, err := analyzerOptions(cfg.Stemming)
	if err != nil {
		return nil, err
	}

	srv.setupMiddleware()
	if err := srv.setupRoutes(analyzerOpts); err != nil {
		return nil, err
	}

	srv.httpSrv = &http.Server{
		Addr:         sc.Address(),
		Handler:      srv.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	return srv, nil
}

// analyzerOptions builds the /_analyze analyzer options from configuration
func analyzerOptions(c config.StemmingConfig) ([]text.AnalyzerOption, error) {
	var opts []text.AnalyzerOption
	if c.StopWordsFile != "" {
		words, err := text.LoadWordList(c.StopWordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load stop words: %w", err)
		}
		opts = append(opts, text.WithStopWords(words))
	}
	if c.MinTokenLength > 0 {
		opts = append(opts, text.WithMinTokenLength(c.MinTokenLength))
	}
	return opts, nil
}

// setupMiddleware configures HTTP middleware stack
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if s.config.Server.EnableLogging {
		s.router.Use(middleware.Logger)
	}

	if s.config.Server.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}

	s.router.Use(s.requestSizeLimitMiddleware)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes(analyzerOpts []text.AnalyzerOption) error {
	sc := s.config.Server
	h := handlers.New(s.toolkit, s.config.Stemming.DefaultAlgorithm,
		handlers.WithAnalyzerOptions(analyzerOpts...),
		handlers.WithLogger(s.logger))

	var graphqlHandler *gql.Handler
	if sc.EnableGraphQL {
		var err error
		graphqlHandler, err = gql.NewHandler(s.toolkit, s.config.Stemming.DefaultAlgorithm)
		if err != nil {
			return fmt.Errorf("failed to setup GraphQL routes: %w", err)
		}
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "NotFound", "no route for "+r.URL.Path)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", r.Method+" not allowed on "+r.URL.Path)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/_health", h.Health(s.startTime))
		r.Get("/_algorithms", h.ListAlgorithms)
		r.Get("/_stem", h.StemWord)
		r.Post("/_stem", h.StemWords)
		r.Post("/_analyze", h.Analyze)
		r.Get("/_explain", h.Explain)
		r.Get("/_cache/_stats", h.CacheStats)
		r.With(s.guard.Middleware).Post("/_profiles/{name}/_evict", h.EvictProfile)

		// Prometheus metrics endpoint
		r.Method(http.MethodGet, "/_metrics", s.metrics.Handler())

		if graphqlHandler != nil {
			r.Method(http.MethodGet, "/graphql", graphqlHandler)
			r.Method(http.MethodPost, "/graphql", graphqlHandler)
			r.Get("/graphiql", gql.GraphiQLHandler())
		}
	})

	// Streaming connections outlive the request timeout
	if sc.EnableWebSocket {
		s.router.Get("/_ws/stem", h.HandleStemStream(s.streams))
	}

	return nil
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	sc := s.config.Server
	methods := strings.Join(sc.AllowedMethods, ", ")
	headers := strings.Join(sc.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin(r.Header.Get("Origin")))
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowedOrigin picks the Access-Control-Allow-Origin value for origin
func (s *Server) allowedOrigin(origin string) string {
	allowed := s.config.Server.AllowedOrigins
	if len(allowed) == 0 {
		return "*"
	}
	for _, o := range allowed {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return allowed[0]
}

// requestSizeLimitMiddleware limits request body size
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	sc := s.config.Server
	protocol := "http"
	if sc.EnableTLS {
		protocol = "https"
	}
	s.logger.Info("Server starting",
		slog.String("address", fmt.Sprintf("%s://%s", protocol, l.Addr())),
		slog.String("default_algorithm", s.config.Stemming.DefaultAlgorithm),
		slog.Any("algorithms", s.toolkit.ListAlgorithms()),
		slog.Bool("graphql", sc.EnableGraphQL),
		slog.Bool("websocket", sc.EnableWebSocket),
		slog.Bool("admin", s.guard.Enabled()))

	errChan := make(chan error, 1)
	go func() {
		var err error
		if sc.EnableTLS {
			err = s.httpSrv.ServeTLS(l, sc.TLSCertFile, sc.TLSKeyFile)
		} else {
			err = s.httpSrv.Serve(l)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Start listens on the configured address and serves until SIGINT or SIGTERM
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpSrv.Addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx, l)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Close streaming connections first; Shutdown does not wait for hijacked ones
	if err := s.streams.Close(); err != nil {
		s.logger.Warn("Error closing stream connections", slog.String("error", err.Error()))
	}

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error", slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Error encoding JSON response", slog.String("error", err.Error()))
	}
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := map[string]interface{}{
		"ok":      false,
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	}
	WriteJSON(w, statusCode, response)
}
