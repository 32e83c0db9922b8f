package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/introspection"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrSubGraphResponse = errors.New("subgraph returned errors")
)

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ResponseError carries the errors returned by a subgraph.
type ResponseError struct {
	Server string
	Errors []GraphQLError
}

func (e *ResponseError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		messages = append(messages, err.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSubGraphResponse, e.Server, strings.Join(messages, "; "))
}

func (e *ResponseError) Unwrap() error {
	return ErrSubGraphResponse
}

// RetryOption defines the retry configuration for introspection fetching.
type RetryOption struct {
	Attempts int    `yaml:"attempts" default:"3"`
	Timeout  string `yaml:"timeout"  default:"5s"`
}

func (r RetryOption) attempts() int {
	if r.Attempts <= 0 {
		return 1
	}
	return r.Attempts
}

func (r RetryOption) timeout() time.Duration {
	if r.Timeout != "" {
		if d, err := time.ParseDuration(r.Timeout); err == nil {
			return d
		}
	}
	return 5 * time.Second
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Client talks to subgraph servers over HTTP.
type Client struct {
	httpClient *http.Client
	retry      RetryOption
	metrics    *Metrics
}

// NewClient creates a Client. When tracing is enabled the transport is wrapped with
// otelhttp. metrics may be nil.
func NewClient(httpClient *http.Client, retry RetryOption, tracing bool, metrics *Metrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	if tracing {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *httpClient
		wrapped.Transport = otelhttp.NewTransport(base)
		httpClient = &wrapped
	}
	return &Client{
		httpClient: httpClient,
		retry:      retry,
		metrics:    metrics,
	}
}

// FetchIntrospection posts the introspection query to the compose endpoint of server.
// It retries up to the configured attempts, each bounded by the per-attempt timeout.
func (c *Client) FetchIntrospection(ctx context.Context, server graph.Server) (*introspection.Schema, error) {
	url := server.ComposeURL()
	attempts := c.retry.attempts()

	var lastErr error
	for i := 0; i < attempts; i++ {
		schema, err := c.fetchIntrospection(ctx, url)
		if err == nil {
			return schema, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("failed to fetch introspection from %s after %d attempt(s): %w", url, attempts, lastErr)
}

func (c *Client) fetchIntrospection(ctx context.Context, url string) (*introspection.Schema, error) {
	ctx, cancel := context.WithTimeout(ctx, c.retry.timeout())
	defer cancel()

	data, err := c.post(ctx, url, "introspection", introspection.Query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Schema *introspection.Schema `json:"__schema"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode introspection: %w", err)
	}
	if payload.Schema == nil {
		return nil, fmt.Errorf("empty introspection returned from %s", url)
	}
	return payload.Schema, nil
}

// Execute posts query to the GraphQL endpoint of server and returns the decoded data.
func (c *Client) Execute(ctx context.Context, server graph.Server, query string) (map[string]any, error) {
	raw, err := c.post(ctx, server.GraphQLURL(), "query", query)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, url, kind, query string) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.do(ctx, url, query)
	c.metrics.observe(url, kind, start, err)
	return raw, err
}

func (c *Client) do(ctx context.Context, url, query string) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	applyForwardedHeaders(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result graphQLResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, &ResponseError{Server: url, Errors: result.Errors}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	return result.Data, nil
}
