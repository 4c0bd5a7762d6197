package auth

import (
	"context"
	"log/slog"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ContextKeyAdmin marks a request authenticated with the admin token
	ContextKeyAdmin contextKey = "auth_admin"
)

// Guard checks bearer tokens against a stored hash
type Guard struct {
	hash   string
	logger *slog.Logger
}

// NewGuard creates a guard for hash. An empty hash rejects every request.
func NewGuard(hash string, logger *slog.Logger) (*Guard, error) {
	if hash != "" {
		if err := ValidateHash(hash); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{hash: hash, logger: logger}, nil
}

// Enabled reports whether an admin token is configured
func (g *Guard) Enabled() bool {
	return g.hash != ""
}

// Check verifies the Authorization header value
func (g *Guard) Check(header string) error {
	if !g.Enabled() {
		return ErrNoToken
	}
	token, err := ParseAuthHeader(header)
	if err != nil {
		return err
	}
	return VerifyToken(token, g.hash)
}

// Middleware returns an HTTP middleware that requires the admin token
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			http.Error(w, "Forbidden: admin endpoints are disabled", http.StatusForbidden)
			return
		}

		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		if err := g.Check(authHeader); err != nil {
			g.logger.Warn("Rejected admin request",
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
				slog.String("error", err.Error()))
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyAdmin, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsAdmin reports whether the request passed the admin middleware
func IsAdmin(r *http.Request) bool {
	ok, _ := r.Context().Value(ContextKeyAdmin).(bool)
	return ok
}
