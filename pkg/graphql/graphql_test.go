package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/stemmer"
	"github.com/mnohosten/ptstem/pkg/toolkit"
)

func newTestToolkit(t *testing.T, opts ...toolkit.Option) *toolkit.Toolkit {
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
			Exceptions: []stemmer.Exception{{Word: "mal", Stem: "mal"}},
		}, nil
	})))
	return toolkit.New(reg, opts...)
}

func execute(t *testing.T, tk *toolkit.Toolkit, query string) *graphql.Result {
	t.Helper()
	schema, err := Schema(tk, "mini")
	require.NoError(t, err)
	return graphql.Do(graphql.Params{Schema: schema, RequestString: query})
}

func TestGraphQLSchema(t *testing.T) {
	schema, err := Schema(newTestToolkit(t), "mini")
	require.NoError(t, err)
	require.NotNil(t, schema.QueryType())
	assert.Nil(t, schema.MutationType())
}

func TestGraphQLStem(t *testing.T) {
	tk := newTestToolkit(t)

	result := execute(t, tk, `{ a: stem(word: "meninas") b: stem(word: "CASINHAS", algorithm: "mini") c: stem(word: "mal") }`)
	require.Empty(t, result.Errors)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, "menin", data["a"])
	assert.Equal(t, "cas", data["b"])
	assert.Equal(t, "mal", data["c"])
}

func TestGraphQLStemErrors(t *testing.T) {
	tk := newTestToolkit(t)

	result := execute(t, tk, `{ stem(word: "gatos", algorithm: "klingon") }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, `unknown algorithm "klingon"`)

	result = execute(t, tk, `{ stem(word: "   ") }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "empty input")
}

func TestGraphQLStemAllAndPhrase(t *testing.T) {
	tk := newTestToolkit(t)

	result := execute(t, tk, `{
		stemAll(words: ["meninas", "lindamente"]) { word stem }
		stemPhrase(text: "as casinhas  lindamente")
	}`)
	require.Empty(t, result.Errors)

	data := result.Data.(map[string]interface{})
	all := data["stemAll"].([]interface{})
	require.Len(t, all, 2)
	assert.Equal(t, map[string]interface{}{"word": "meninas", "stem": "menin"}, all[0])
	assert.Equal(t, map[string]interface{}{"word": "lindamente", "stem": "linda"}, all[1])

	assert.Equal(t, []interface{}{"as", "cas", "linda"}, data["stemPhrase"])
}

func TestGraphQLAlgorithms(t *testing.T) {
	tk := newTestToolkit(t)

	result := execute(t, tk, `{ algorithms { name loaded } }`)
	require.Empty(t, result.Errors)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, []interface{}{
		map[string]interface{}{"name": "mini", "loaded": false},
	}, data["algorithms"])

	_, err := tk.Stem("gatos", "mini")
	require.NoError(t, err)

	result = execute(t, tk, `{ algorithms { loaded } }`)
	data = result.Data.(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"loaded": true}}, data["algorithms"])
}

func TestGraphQLExplain(t *testing.T) {
	tk := newTestToolkit(t)

	result := execute(t, tk, `{ explain(word: "Meninas") {
		algorithm profile input stem exception ignored
		steps { step input output matched suffix }
	} }`)
	require.Empty(t, result.Errors)

	exp := result.Data.(map[string]interface{})["explain"].(map[string]interface{})
	assert.Equal(t, "mini", exp["algorithm"])
	assert.Equal(t, "meninas", exp["input"])
	assert.Equal(t, "menin", exp["stem"])
	assert.Equal(t, false, exp["exception"])

	steps := exp["steps"].([]interface{})
	require.Len(t, steps, 2)
	assert.Equal(t, map[string]interface{}{
		"step": "plural", "input": "meninas", "output": "menin", "matched": true, "suffix": "as",
	}, steps[0])
	assert.Equal(t, false, steps[1].(map[string]interface{})["matched"])
}

func TestGraphQLCacheStats(t *testing.T) {
	result := execute(t, newTestToolkit(t), `{ cacheStats { size } }`)
	require.Empty(t, result.Errors)
	assert.Nil(t, result.Data.(map[string]interface{})["cacheStats"])

	tk := newTestToolkit(t, toolkit.WithCache(10, 0))
	_, _ = tk.Stem("gatos", "mini")
	_, _ = tk.Stem("gatos", "mini")

	result = execute(t, tk, `{ cacheStats { capacity size hits misses } }`)
	require.Empty(t, result.Errors)
	stats := result.Data.(map[string]interface{})["cacheStats"].(map[string]interface{})
	assert.Equal(t, 10, stats["capacity"])
	assert.Equal(t, 1, stats["size"])
	assert.Equal(t, 1, stats["hits"])
	assert.Equal(t, 1, stats["misses"])
}

func TestHandlerPost(t *testing.T) {
	h, err := NewHandler(newTestToolkit(t), "mini")
	require.NoError(t, err)

	body := `{"query":"query($w: String!) { stem(word: $w) }","variables":{"w":"gatos"}}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]interface{}{"stem": "gato"}, resp["data"])
}

func TestHandlerGet(t *testing.T) {
	h, err := NewHandler(newTestToolkit(t), "mini")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ stem(word: "gatos") }`), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stem":"gato"`)
}

func TestHandlerRejects(t *testing.T) {
	h, err := NewHandler(newTestToolkit(t), "mini")
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"bad json", http.MethodPost, "/graphql", "{", http.StatusBadRequest},
		{"missing query", http.MethodPost, "/graphql", "{}", http.StatusBadRequest},
		{"bad variables", http.MethodGet, "/graphql?query=x&variables=%7B", "", http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/graphql", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGraphiQLHandler(t *testing.T) {
	w := httptest.NewRecorder()
	GraphiQLHandler()(w, httptest.NewRequest(http.MethodGet, "/graphiql", nil))

	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "ptstem GraphiQL")
}
