package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/n9te9/go-graphql-composer/composer"
	"github.com/n9te9/go-graphql-composer/federation/planner"
	"github.com/n9te9/go-graphql-composer/federation/transport"
	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
	"github.com/rs/zerolog"
)

var (
	ErrNoOperation          = errors.New("no operation found in document")
	ErrOperationNameMissing = errors.New("operation name is required when the document has several operations")
	ErrUnknownOperation     = errors.New("unknown operation")
)

const (
	codeParseFailed      = "GRAPHQL_PARSE_FAILED"
	codeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
	codeResolveFailed    = "SUBGRAPH_RESOLVE_FAILED"
)

// Gateway answers GraphQL requests with the root resolvers of a composed schema.
type Gateway struct {
	graphQLEndpoint string
	timeout         time.Duration
	engine          *executionEngine
	logger          zerolog.Logger

	enableComplementRequestId   bool
	enableHangOverRequestHeader bool
}

var _ http.Handler = (*Gateway)(nil)

// NewGateway composes the subgraphs of settings. t reaches the subgraph servers.
func NewGateway(ctx context.Context, settings GatewayOption, logger zerolog.Logger, t composer.Transport) (*Gateway, error) {
	settings.Defaults()

	engine, err := buildEngine(ctx, settings.ComposerOptions(logger, t))
	if err != nil {
		return nil, err
	}

	return &Gateway{
		graphQLEndpoint:             settings.Endpoint,
		timeout:                     settings.Timeout(),
		engine:                      engine,
		logger:                      logger,
		enableComplementRequestId:   true,
		enableHangOverRequestHeader: settings.EnableHangOverRequestHeader,
	}, nil
}

// Endpoint is the path the gateway is served on.
func (g *Gateway) Endpoint() string {
	return g.graphQLEndpoint
}

// SDL returns the merged schema.
func (g *Gateway) SDL() string {
	return g.engine.sdl
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type graphQLResponse struct {
	Data   *orderedData   `json:"data,omitempty"`
	Errors []graphQLError `json:"errors,omitempty"`
}

func newError(message, code string, path ...any) graphQLError {
	return graphQLError{
		Message:    message,
		Path:       path,
		Extensions: map[string]any{"code": code},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	requestID := r.Header.Get(transport.RequestIDHeader)
	if requestID == "" && g.enableComplementRequestId {
		requestID = uuid.NewString()
		r.Header.Set(transport.RequestIDHeader, requestID)
	}
	w.Header().Set(transport.RequestIDHeader, requestID)

	ctx := r.Context()
	if g.enableHangOverRequestHeader {
		ctx = transport.WithForwardedHeaders(ctx, r.Header)
	} else if requestID != "" {
		ctx = transport.WithForwardedHeaders(ctx, http.Header{transport.RequestIDHeader: {requestID}})
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	logger := g.logger.With().Str("request_id", requestID).Logger()

	p := parser.New(lexer.New(req.Query))
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		resp := graphQLResponse{}
		for _, perr := range p.Errors() {
			resp.Errors = append(resp.Errors, newError(fmt.Sprint(perr), codeParseFailed))
		}
		writeResponse(w, resp)
		return
	}

	writeResponse(w, g.execute(logger.WithContext(ctx), doc, req.OperationName, req.Variables))
}

func (g *Gateway) execute(ctx context.Context, doc *ast.Document, operationName string, variables map[string]any) graphQLResponse {
	op, err := operation(doc, operationName)
	if err != nil {
		return graphQLResponse{Errors: []graphQLError{newError(err.Error(), codeValidationFailed)}}
	}

	var typeName string
	switch op.Operation {
	case ast.Query:
		typeName = g.engine.queryTypeName
	case ast.Mutation:
		typeName = g.engine.mutationTypeName
	}
	if typeName == "" {
		msg := fmt.Sprintf("operation %s is not supported by the schema", op.Operation)
		return graphQLResponse{Errors: []graphQLError{newError(msg, codeValidationFailed)}}
	}

	logger := zerolog.Ctx(ctx)
	fragments := planner.CollectFragments(doc)
	data := newOrderedData()
	resp := graphQLResponse{Data: data}

	// Root fields run in document order so that mutations stay sequential.
	for _, field := range rootFields(op.SelectionSet, fragments) {
		key := field.Name.String()
		if field.Alias != nil && field.Alias.String() != "" {
			key = field.Alias.String()
		}
		if data.has(key) {
			continue
		}

		if field.Name.String() == "__typename" {
			data.set(key, typeName)
			continue
		}

		fn, ok := g.engine.resolver(typeName, field.Name.String())
		if !ok {
			msg := fmt.Sprintf("Cannot query field %q on type %q", field.Name.String(), typeName)
			resp.Errors = append(resp.Errors, newError(msg, codeValidationFailed, key))
			data.set(key, nil)
			continue
		}

		v, err := fn(ctx, nil, &composer.ResolveInfo{
			Field:     field,
			Fragments: fragments,
			Variables: variables,
		})
		if err != nil {
			logger.Error().Err(err).Str("field", key).Msg("failed to resolve root field")
			resp.Errors = append(resp.Errors, newError(err.Error(), codeResolveFailed, key))
			data.set(key, nil)
			continue
		}
		data.set(key, v)
	}

	return resp
}

// operation selects the operation named name. An empty name is only accepted for a
// document holding a single operation.
func operation(doc *ast.Document, name string) (*ast.OperationDefinition, error) {
	var ops []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			ops = append(ops, op)
		}
	}

	if name == "" {
		switch len(ops) {
		case 0:
			return nil, ErrNoOperation
		case 1:
			return ops[0], nil
		default:
			return nil, ErrOperationNameMissing
		}
	}

	for _, op := range ops {
		if op.Name != nil && op.Name.String() == name {
			return op, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownOperation, name)
}

// rootFields flattens the fragments written directly on the root selection.
func rootFields(selections []ast.Selection, fragments map[string]*ast.FragmentDefinition) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range selections {
		switch sel := sel.(type) {
		case *ast.Field:
			fields = append(fields, sel)
		case *ast.InlineFragment:
			fields = append(fields, rootFields(sel.SelectionSet, fragments)...)
		case *ast.FragmentSpread:
			if fragDef, ok := fragments[sel.Name.String()]; ok {
				fields = append(fields, rootFields(fragDef.SelectionSet, fragments)...)
			}
		}
	}
	return fields
}

func writeResponse(w http.ResponseWriter, resp graphQLResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// orderedData keeps the response keys in selection order.
type orderedData struct {
	keys   []string
	values map[string]any
}

func newOrderedData() *orderedData {
	return &orderedData{values: make(map[string]any)}
}

func (d *orderedData) has(key string) bool {
	_, ok := d.values[key]
	return ok
}

func (d *orderedData) set(key string, v any) {
	if !d.has(key) {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *orderedData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
