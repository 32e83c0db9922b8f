package transport

import (
	"context"
	"net/http"
)

// RequestIDHeader is propagated to every subgraph call of a request.
const RequestIDHeader = "X-Request-Id"

type headerKey struct{}

// WithForwardedHeaders stores headers to be copied onto every subgraph request made
// with ctx. Hop-by-hop and body headers are skipped.
func WithForwardedHeaders(ctx context.Context, header http.Header) context.Context {
	forwarded := make(http.Header, len(header))
	for k, v := range header {
		if skipHeader(k) {
			continue
		}
		forwarded[k] = append([]string(nil), v...)
	}
	return context.WithValue(ctx, headerKey{}, forwarded)
}

// ForwardedHeaders returns the headers stored by WithForwardedHeaders.
func ForwardedHeaders(ctx context.Context) http.Header {
	h, _ := ctx.Value(headerKey{}).(http.Header)
	return h
}

func applyForwardedHeaders(ctx context.Context, dst http.Header) {
	for k, v := range ForwardedHeaders(ctx) {
		if dst.Get(k) != "" {
			continue
		}
		for _, value := range v {
			dst.Add(k, value)
		}
	}
}

func skipHeader(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Content-Length", "Content-Type", "Accept-Encoding", "Connection", "Keep-Alive",
		"Transfer-Encoding", "Upgrade", "Te", "Trailer", "Host":
		return true
	}
	return false
}
