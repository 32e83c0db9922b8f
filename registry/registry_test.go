package registry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/federation/transport"
	"github.com/n9te9/go-graphql-composer/gateway"
	"github.com/n9te9/go-graphql-composer/internal/subgraphtest"
	"github.com/n9te9/go-graphql-composer/registry"
	"github.com/rs/zerolog"
)

func booksBuild(t *testing.T) registry.BuildFunc {
	t.Helper()

	books := subgraphtest.Start(t, subgraphtest.Books())
	opt := gateway.GatewayOption{
		SubGraphs: []gateway.SubGraphSetting{{Name: "books-subgraph", Host: books.URL}},
	}
	client := transport.NewClient(http.DefaultClient, transport.RetryOption{Attempts: 1}, false, nil)

	return func(ctx context.Context) (*gateway.Gateway, error) {
		return gateway.NewGateway(ctx, opt, zerolog.Nop(), client)
	}
}

func TestRegistry_NotReady(t *testing.T) {
	r := registry.NewRegistry(booksBuild(t), zerolog.Nop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ getBook(id: 1) { title } }"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unexpected status: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeSDL(rec, httptest.NewRequest(http.MethodGet, "/sdl", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unexpected status: %d", rec.Code)
	}
}

func TestRegistry_ServeHTTP(t *testing.T) {
	r := registry.NewRegistry(booksBuild(t), zerolog.Nop())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ getBook(id: 3) { title } }"}`)))

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"data": map[string]any{
			"getBook": map[string]any{"title": "From the universe"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("response mismatch (-got +want):\n%s", diff)
	}

	rec = httptest.NewRecorder()
	r.ServeSDL(rec, httptest.NewRequest(http.MethodGet, "/sdl", nil))
	if !strings.Contains(rec.Body.String(), "type Book") {
		t.Errorf("unexpected SDL: %s", rec.Body.String())
	}
}

func TestRegistry_RegisterGateway(t *testing.T) {
	build := booksBuild(t)
	fail := false
	r := registry.NewRegistry(func(ctx context.Context) (*gateway.Gateway, error) {
		if fail {
			return nil, errors.New("subgraph down")
		}
		return build(ctx)
	}, zerolog.Nop())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := r.AppliedGateway()

	tests := []struct {
		name       string
		method     string
		fail       bool
		wantStatus int
		wantGen    int64
		wantSwap   bool
	}{
		{name: "recompose", method: http.MethodPost, wantStatus: http.StatusOK, wantGen: 2, wantSwap: true},
		{name: "failed build keeps the gateway", method: http.MethodPost, fail: true, wantStatus: http.StatusBadGateway, wantGen: 2},
		{name: "method not allowed", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed, wantGen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := r.AppliedGateway()
			fail = tt.fail

			rec := httptest.NewRecorder()
			r.RegisterGateway(rec, httptest.NewRequest(tt.method, "/schema/recompose", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("unexpected status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := r.Generation(); got != tt.wantGen {
				t.Errorf("unexpected generation: got %d, want %d", got, tt.wantGen)
			}
			if swapped := r.AppliedGateway() != before; swapped != tt.wantSwap {
				t.Errorf("unexpected swap: got %v, want %v", swapped, tt.wantSwap)
			}
		})
	}

	if r.AppliedGateway() == first {
		t.Error("expected the first gateway to be replaced")
	}
}
