package graphql

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/mnohosten/ptstem/pkg/toolkit"
)

// Handler serves GraphQL queries over HTTP
type Handler struct {
	schema graphql.Schema
}

// NewHandler builds the schema for tk and wraps it in an HTTP handler
func NewHandler(tk *toolkit.Toolkit, defaultAlgorithm string) (*Handler, error) {
	schema, err := Schema(tk, defaultAlgorithm)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema}, nil
}

// Request is a GraphQL request as sent in a POST body or GET query string
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func decodeRequest(r *http.Request) (Request, int, error) {
	var req Request

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return req, http.StatusBadRequest, errors.New("invalid variables")
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, http.StatusBadRequest, errors.New("invalid request body")
		}
	default:
		return req, http.StatusMethodNotAllowed, errors.New("graphql only accepts GET and POST requests")
	}

	if req.Query == "" {
		return req, http.StatusBadRequest, errors.New("missing query")
	}
	return req, http.StatusOK, nil
}

// ServeHTTP executes one query. Resolver errors are reported in the
// response body with status 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, status, err := decodeRequest(r)
	if err != nil {
		writeGraphQLError(w, err.Error(), status)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func writeGraphQLError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]string{{"message": message}},
	})
}

const defaultPlaygroundQuery = `# Portuguese stemming over GraphQL

query {
  algorithms { name loaded }
  stem(word: "meninas", algorithm: "orengo")
  explain(word: "gatinhos") {
    stem
    steps { step input output suffix }
  }
}
`

var playground = template.Must(template.New("graphiql").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>ptstem GraphiQL</title>
<style>body { height: 100vh; margin: 0; } #graphiql { height: 100vh; }</style>
<script crossorigin src="https://unpkg.com/react@17/umd/react.production.min.js"></script>
<script crossorigin src="https://unpkg.com/react-dom@17/umd/react-dom.production.min.js"></script>
<link rel="stylesheet" href="https://unpkg.com/graphiql@1.8.7/graphiql.min.css" />
</head>
<body>
<div id="graphiql">Loading...</div>
<script src="https://unpkg.com/graphiql@1.8.7/graphiql.min.js"></script>
<script>
ReactDOM.render(
  React.createElement(GraphiQL, {
    fetcher: GraphiQL.createFetcher({ url: {{.Endpoint}} }),
    defaultQuery: {{.Query}},
  }),
  document.getElementById('graphiql'),
);
</script>
</body>
</html>
`))

// GraphiQLHandler serves the GraphiQL playground pointed at /graphql
func GraphiQLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		playground.Execute(w, struct{ Endpoint, Query string }{"/graphql", defaultPlaygroundQuery})
	}
}
