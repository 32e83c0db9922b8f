// Package registry holds the gateway currently serving requests and swaps it for a
// freshly composed one on demand.
package registry

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-composer/gateway"
	"github.com/rs/zerolog"
)

var ErrNotReady = errors.New("no gateway composed yet")

// BuildFunc composes a new gateway.
type BuildFunc func(ctx context.Context) (*gateway.Gateway, error)

type Registry struct {
	build          BuildFunc
	logger         zerolog.Logger
	currentGateway atomic.Pointer[gateway.Gateway]
	generation     atomic.Int64

	// serializes recompositions
	mu sync.Mutex
}

func NewRegistry(build BuildFunc, logger zerolog.Logger) *Registry {
	return &Registry{
		build:  build,
		logger: logger,
	}
}

// Start builds the first gateway.
func (r *Registry) Start(ctx context.Context) error {
	_, err := r.Recompose(ctx)
	return err
}

// AppliedGateway returns the gateway serving requests, nil before Start.
func (r *Registry) AppliedGateway() *gateway.Gateway {
	return r.currentGateway.Load()
}

// Generation counts successful compositions.
func (r *Registry) Generation() int64 {
	return r.generation.Load()
}

// Recompose builds a new gateway and swaps it in. The current gateway keeps serving
// when the build fails.
func (r *Registry) Recompose(ctx context.Context) (*gateway.Gateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := r.build(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("recomposition failed, keeping the current gateway")
		return nil, err
	}

	r.currentGateway.Store(next)
	gen := r.generation.Add(1)
	r.logger.Info().Int64("generation", gen).Msg("gateway applied")
	return next, nil
}

func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	gw := r.AppliedGateway()
	if gw == nil {
		http.Error(w, ErrNotReady.Error(), http.StatusServiceUnavailable)
		return
	}
	gw.ServeHTTP(w, req)
}

// ServeSDL prints the merged schema of the applied gateway.
func (r *Registry) ServeSDL(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gw := r.AppliedGateway()
	if gw == nil {
		http.Error(w, ErrNotReady.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(gw.SDL()))
}

type recomposeResponse struct {
	Generation int64  `json:"generation"`
	Error      string `json:"error,omitempty"`
}

// RegisterGateway recomposes the schema from the subgraphs.
func (r *Registry) RegisterGateway(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := r.Recompose(req.Context()); err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(recomposeResponse{Generation: r.Generation(), Error: err.Error()})
		return
	}
	json.NewEncoder(w).Encode(recomposeResponse{Generation: r.Generation()})
}
