// Package subgraphtest serves small in-memory GraphQL subgraphs for tests.
package subgraphtest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/graphql-go/graphql"
	"github.com/n9te9/go-graphql-composer/federation/graph"
)

// SubGraph is a GraphQL server fixture.
type SubGraph struct {
	Name   string
	Schema graphql.Schema

	mu       sync.Mutex
	requests []string
}

// Requests returns the queries received on the GraphQL endpoint so far.
func (s *SubGraph) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Handler answers queries on both the GraphQL and the compose endpoints.
func (s *SubGraph) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(graph.DefaultComposeEndpoint, s.serve(false))
	mux.HandleFunc(graph.DefaultGraphQLEndpoint, s.serve(true))
	return mux
}

func (s *SubGraph) serve(record bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if record {
			s.mu.Lock()
			s.requests = append(s.requests, req.Query)
			s.mu.Unlock()
		}

		result := graphql.Do(graphql.Params{
			Schema:         s.Schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// Start serves s until the test ends.
func Start(t testing.TB, s *SubGraph) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func mustSchema(config graphql.SchemaConfig) graphql.Schema {
	schema, err := graphql.NewSchema(config)
	if err != nil {
		panic(err)
	}
	return schema
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
