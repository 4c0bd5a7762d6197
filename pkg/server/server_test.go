package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnohosten/ptstem/pkg/auth"
	"github.com/mnohosten/ptstem/pkg/config"
	"github.com/mnohosten/ptstem/pkg/metrics"
	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/rules"
	"github.com/mnohosten/ptstem/pkg/toolkit"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.EnableLogging = false
	cfg.Server.Port = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	reg := registry.New()
	require.NoError(t, rules.RegisterBuiltin(reg))
	srv, err := New(cfg, toolkit.New(reg, toolkit.WithCache(100, 0)), opts...)
	require.NoError(t, err)
	return srv
}

func request(t *testing.T, srv *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tests := []struct {
		method string
		target string
		body   string
		status int
		want   string
	}{
		{"GET", "/_health", "", 200, `"status":"healthy"`},
		{"GET", "/_algorithms", "", 200, `"name":"orengo"`},
		{"GET", "/_stem?word=meninas", "", 200, `"stem":"menin"`},
		{"GET", "/_stem?word=felizmente&algorithm=porter", "", 200, `"stem":"feliz"`},
		{"POST", "/_stem", `{"algorithm":"savoy","words":["cantores","pães"]}`, 200, `"stem":"pão"`},
		{"POST", "/_analyze", `{"text":"As meninas bonitas"}`, 200, `"original":"meninas"`},
		{"GET", "/_explain?word=gatinhos", "", 200, `"step":"augmentative_diminutive"`},
		{"GET", "/_cache/_stats", "", 200, `"enabled":true`},
		{"GET", "/_stem?word=gatos&algorithm=klingon", "", 404, `"error":"UnknownAlgorithm"`},
		{"GET", "/_stem?word=", "", 400, `"error":"EmptyInput"`},
		{"GET", "/nowhere", "", 404, `"error":"NotFound"`},
		{"DELETE", "/_stem", "", 405, `"error":"MethodNotAllowed"`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := request(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestServerMetrics(t *testing.T) {
	m := metrics.New("test")
	reg := registry.New(registry.WithMetrics(m))
	require.NoError(t, rules.RegisterBuiltin(reg))
	srv, err := New(testConfig(), toolkit.New(reg, toolkit.WithMetrics(m)), WithMetrics(m))
	require.NoError(t, err)

	w := request(t, srv, "GET", "/_stem?word=meninas&algorithm=orengo", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = request(t, srv, "GET", "/_metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_stems_total{algorithm="orengo",result="ok"} 1`)
	assert.Contains(t, w.Body.String(), `test_profile_loads_total{algorithm="orengo",result="ok"} 1`)
}

func TestServerMetricsWithoutCollectors(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := request(t, srv, "GET", "/_metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerOptionalEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.Server.EnableGraphQL = false
	cfg.Server.EnableWebSocket = false
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusNotFound, request(t, srv, "POST", "/graphql", `{"query":"{ algorithms { name } }"}`).Code)
	assert.Equal(t, http.StatusNotFound, request(t, srv, "GET", "/graphiql", "").Code)
	assert.Equal(t, http.StatusNotFound, request(t, srv, "GET", "/_ws/stem", "").Code)

	cfg = testConfig()
	cfg.Server.EnableGraphQL = true
	srv = newTestServer(t, cfg)

	w := request(t, srv, "POST", "/graphql", `{"query":"{ stem(word: \"meninas\") }"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stem":"menin"`)
	assert.Equal(t, http.StatusOK, request(t, srv, "GET", "/graphiql", "").Code)
}

func TestServerAdminEvict(t *testing.T) {
	srv := newTestServer(t, testConfig())
	w := request(t, srv, "POST", "/_profiles/orengo/_evict", "", "Authorization", "Bearer anything")
	assert.Equal(t, http.StatusForbidden, w.Code, "admin is disabled without a token hash")

	hash, err := auth.HashToken("letmein")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Server.AdminTokenHash = hash
	srv = newTestServer(t, cfg)

	_, err = srv.toolkit.Stem("meninas", "orengo")
	require.NoError(t, err)
	require.True(t, srv.toolkit.Registry().IsLoaded("orengo"))

	w = request(t, srv, "POST", "/_profiles/orengo/_evict", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, srv, "POST", "/_profiles/orengo/_evict", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, srv, "POST", "/_profiles/orengo/_evict", "", "Authorization", "Bearer letmein")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"evicted":true`)
	assert.False(t, srv.toolkit.Registry().IsLoaded("orengo"))
}

func TestServerCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://a.example", "https://b.example"}
	srv := newTestServer(t, cfg)

	w := request(t, srv, "OPTIONS", "/_stem", "", "Origin", "https://b.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://b.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = request(t, srv, "GET", "/_health", "", "Origin", "https://evil.example")
	assert.Equal(t, "https://a.example", w.Header().Get("Access-Control-Allow-Origin"))

	cfg = testConfig()
	cfg.Server.EnableCORS = false
	srv = newTestServer(t, cfg)
	w = request(t, srv, "GET", "/_health", "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRequestSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxRequestSize = 32
	srv := newTestServer(t, cfg)

	body := `{"words":["` + strings.Repeat("a", 64) + `"]}`
	w := request(t, srv, "POST", "/_stem", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewValidatesTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.EnableTLS = true
	_, err := New(cfg, toolkit.New(registry.New()))
	assert.Error(t, err)

	cfg.Server.TLSCertFile = filepath.Join(t.TempDir(), "missing.pem")
	cfg.Server.TLSKeyFile = cfg.Server.TLSCertFile
	_, err = New(cfg, toolkit.New(registry.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNewStopWordsFile(t *testing.T) {
	cfg := testConfig()
	cfg.Stemming.StopWordsFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err := New(cfg, toolkit.New(registry.New()))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("# custom list\nmeninas\n"), 0o644))
	cfg.Stemming.StopWordsFile = path
	srv := newTestServer(t, cfg)

	w := request(t, srv, "POST", "/_analyze", `{"text":"as meninas"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"original":"as"`)
	assert.NotContains(t, w.Body.String(), `"original":"meninas"`)
}

func TestServeAndShutdown(t *testing.T) {
	srv := newTestServer(t, testConfig())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/_health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
