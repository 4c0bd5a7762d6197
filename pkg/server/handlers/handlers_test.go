package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/stemmer"
	"github.com/mnohosten/ptstem/pkg/toolkit"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register("mini", registry.LoaderFunc(func() (stemmer.Definition, error) {
		return stemmer.Definition{
			Name: "mini",
			Steps: []stemmer.Step{
				{Name: "plural", Rules: []stemmer.Rule{
					stemmer.NewRule("inhas", 3, ""),
					stemmer.NewRule("as", 1, ""),
					stemmer.NewRule("s", 2, ""),
				}},
				{Name: "adverb", Rules: []stemmer.Rule{stemmer.NewRule("mente", 3, "")}},
			},
		}, nil
	})))
	require.NoError(t, reg.Register("broken", registry.LoaderFunc(func() (stemmer.Definition, error) {
		return stemmer.Definition{Name: "broken"}, nil
	})))
	return reg
}

// setupTestHandlers creates handlers and a router with every route mounted
func setupTestHandlers(t *testing.T, opts ...toolkit.Option) (*Handlers, http.Handler) {
	t.Helper()
	h := New(toolkit.New(testRegistry(t), opts...), "mini")

	r := chi.NewRouter()
	r.Get("/_health", h.Health(time.Now()))
	r.Get("/_algorithms", h.ListAlgorithms)
	r.Get("/_stem", h.StemWord)
	r.Post("/_stem", h.StemWords)
	r.Get("/_explain", h.Explain)
	r.Post("/_analyze", h.Analyze)
	r.Get("/_cache/_stats", h.CacheStats)
	r.Post("/_profiles/{name}/_evict", h.EvictProfile)
	return h, r
}

type envelope struct {
	OK      bool            `json:"ok"`
	Result  json.RawMessage `json:"result"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHealth(t *testing.T) {
	_, r := setupTestHandlers(t)

	w, env := do(t, r, "GET", "/_health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.OK)
	assert.Contains(t, string(env.Result), `"status":"healthy"`)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestListAlgorithms(t *testing.T) {
	_, r := setupTestHandlers(t)

	_, env := do(t, r, "GET", "/_algorithms", "")
	require.True(t, env.OK)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)

	var result struct {
		Algorithms []toolkit.AlgorithmInfo `json:"algorithms"`
		Default    string                  `json:"default"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, "mini", result.Default)
	assert.Equal(t, []toolkit.AlgorithmInfo{{Name: "broken"}, {Name: "mini"}}, result.Algorithms)
}

func TestStemWord(t *testing.T) {
	_, r := setupTestHandlers(t)

	tests := []struct {
		name      string
		target    string
		status    int
		errorType string
		stem      string
	}{
		{"explicit algorithm", "/_stem?word=meninas&algorithm=mini", 200, "", "menin"},
		{"default algorithm", "/_stem?word=lindamente", 200, "", "linda"},
		{"case insensitive algorithm", "/_stem?word=casinhas&algorithm=MINI", 200, "", "cas"},
		{"empty word", "/_stem?word=%20%20", 400, "EmptyInput", ""},
		{"missing word", "/_stem", 400, "EmptyInput", ""},
		{"unknown algorithm", "/_stem?word=gatos&algorithm=klingon", 404, "UnknownAlgorithm", ""},
		{"broken profile", "/_stem?word=gatos&algorithm=broken", 500, "ProfileLoad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, "GET", tt.target, "")
			assert.Equal(t, tt.status, w.Code)
			if tt.errorType != "" {
				assert.False(t, env.OK)
				assert.Equal(t, tt.errorType, env.Error)
				assert.Equal(t, tt.status, env.Code)
				assert.NotEmpty(t, env.Message)
				return
			}
			var result map[string]string
			require.NoError(t, json.Unmarshal(env.Result, &result))
			assert.Equal(t, tt.stem, result["stem"])
		})
	}
}

func TestStemWords(t *testing.T) {
	_, r := setupTestHandlers(t)

	w, env := do(t, r, "POST", "/_stem", `{"algorithm":"mini","words":["meninas","casinhas","lindamente"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 3, *env.Count)

	var result struct {
		Algorithm string       `json:"algorithm"`
		Stems     []StemResult `json:"stems"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, "mini", result.Algorithm)
	assert.Equal(t, []StemResult{
		{Word: "meninas", Stem: "menin"},
		{Word: "casinhas", Stem: "cas"},
		{Word: "lindamente", Stem: "linda"},
	}, result.Stems)
}

func TestStemWordsErrors(t *testing.T) {
	_, r := setupTestHandlers(t)

	tests := []struct {
		name      string
		body      string
		status    int
		errorType string
	}{
		{"empty body", "", 400, "BadRequest"},
		{"invalid json", "{", 400, "BadRequest"},
		{"no words", `{"words":[]}`, 400, "BadRequest"},
		{"first failure aborts", `{"words":["gatos","  ","meninas"]}`, 400, "EmptyInput"},
		{"unknown algorithm", `{"algorithm":"klingon","words":["gatos"]}`, 404, "UnknownAlgorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, "POST", "/_stem", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.errorType, env.Error)
		})
	}
}

func TestRequestTooLarge(t *testing.T) {
	h, _ := setupTestHandlers(t)

	body := `{"words":["` + strings.Repeat("a", 100) + `"]}`
	req := httptest.NewRequest("POST", "/_stem", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 16)
	h.StemWords(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "RequestTooLarge")
}

func TestExplain(t *testing.T) {
	_, r := setupTestHandlers(t)

	w, env := do(t, r, "GET", "/_explain?word=Meninas", "")
	require.Equal(t, http.StatusOK, w.Code)

	var exp toolkit.Explanation
	require.NoError(t, json.Unmarshal(env.Result, &exp))
	assert.Equal(t, "mini", exp.Algorithm)
	assert.Equal(t, "meninas", exp.Input)
	assert.Equal(t, "menin", exp.Stem)
	require.Len(t, exp.Steps, 2)
	assert.Equal(t, "as", exp.Steps[0].Suffix)
	assert.False(t, exp.Steps[1].Matched)

	w, env = do(t, r, "GET", "/_explain?word=gatos&algorithm=nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UnknownAlgorithm", env.Error)
}

func TestAnalyze(t *testing.T) {
	_, r := setupTestHandlers(t)

	w, env := do(t, r, "POST", "/_analyze", `{"text":"As meninas, lindamente!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)

	var result struct {
		Tokens []struct {
			Token    string `json:"token"`
			Original string `json:"original"`
			Position int    `json:"position"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	require.Len(t, result.Tokens, 2)
	assert.Equal(t, "menin", result.Tokens[0].Token)
	assert.Equal(t, "meninas", result.Tokens[0].Original)
	assert.Equal(t, 1, result.Tokens[0].Position)
	assert.Equal(t, "linda", result.Tokens[1].Token)

	w, env = do(t, r, "POST", "/_analyze", `{"text":"","algorithm":"klingon"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UnknownAlgorithm", env.Error)

	w, _ = do(t, r, "POST", "/_analyze", `{"text":"o a"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tokens":[]`)
}

func TestCacheStats(t *testing.T) {
	_, r := setupTestHandlers(t)
	_, env := do(t, r, "GET", "/_cache/_stats", "")
	assert.JSONEq(t, `{"enabled":false}`, string(env.Result))

	_, r = setupTestHandlers(t, toolkit.WithCache(8, 0))
	do(t, r, "GET", "/_stem?word=gatos", "")
	do(t, r, "GET", "/_stem?word=gatos", "")

	_, env = do(t, r, "GET", "/_cache/_stats", "")
	var result struct {
		Enabled bool `json:"enabled"`
		Stats   struct {
			Capacity int    `json:"capacity"`
			Size     int    `json:"size"`
			Hits     uint64 `json:"hits"`
			Misses   uint64 `json:"misses"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.True(t, result.Enabled)
	assert.Equal(t, 8, result.Stats.Capacity)
	assert.Equal(t, 1, result.Stats.Size)
	assert.Equal(t, uint64(1), result.Stats.Hits)
	assert.Equal(t, uint64(1), result.Stats.Misses)
}

func TestEvictProfile(t *testing.T) {
	h, r := setupTestHandlers(t)

	_, env := do(t, r, "POST", "/_profiles/mini/_evict", "")
	assert.JSONEq(t, `{"algorithm":"mini","evicted":false}`, string(env.Result))

	do(t, r, "GET", "/_stem?word=gatos", "")
	require.True(t, h.toolkit.Registry().IsLoaded("mini"))

	_, env = do(t, r, "POST", "/_profiles/mini/_evict", "")
	assert.JSONEq(t, `{"algorithm":"mini","evicted":true}`, string(env.Result))
	assert.False(t, h.toolkit.Registry().IsLoaded("mini"))

	w, env := do(t, r, "POST", "/_profiles/klingon/_evict", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", env.Error)
}
