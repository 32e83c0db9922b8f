package composer

import (
	"context"
	"errors"
	"fmt"

	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/introspection"
	"github.com/rs/zerolog"
)

var ErrInvalidOptions = errors.New("invalid composer options")

const (
	DefaultQueryTypeName    = "Query"
	DefaultMutationTypeName = "Mutation"
)

// Transport reaches subgraph servers.
type Transport interface {
	FetchIntrospection(ctx context.Context, server graph.Server) (*introspection.Schema, error)
	Execute(ctx context.Context, server graph.Server, query string) (map[string]any, error)
}

// Options configures a Composer.
type Options struct {
	QueryTypeName        string                                 // Defaults to "Query"
	MutationTypeName     string                                 // Defaults to "Mutation"
	SubGraphs            []SubGraphOption                       // Merged in this order
	OnSubGraphError      func(err error, subGraph string) error // Non-nil return aborts Compose; defaults to returning err
	AddEntitiesResolvers bool                                   // Publish fkeys[].as and many[].as link fields
	DefaultArgsAdapter   func(pkey string) graph.ArgsAdapter    // Adapter of resolvers configured without one
	Logger               zerolog.Logger
	MaxDepth             int // Bound of deferred resolution chains
	Transport            Transport
}

type SubGraphOption struct {
	Name     string
	Server   ServerOption
	Entities map[string]EntityOption
}

type ServerOption struct {
	Host            string
	ComposeEndpoint string // Defaults to graph.DefaultComposeEndpoint
	GraphQLEndpoint string // Defaults to graph.DefaultGraphQLEndpoint
}

type EntityOption struct {
	PKey     string
	FKeys    []ForeignKeyOption
	Many     []ManyOption
	Resolver *ResolverOption
}

type ForeignKeyOption struct {
	Type     string
	Field    string
	PKey     string
	As       string
	SubGraph string // Defaults to the declaring subgraph
	Resolver *ResolverOption
}

type ManyOption struct {
	Type     string
	As       string
	PKey     string
	FKey     string
	SubGraph string // Defaults to the declaring subgraph
	Resolver *ResolverOption
}

type ResolverOption struct {
	Name           string
	ArgsAdapter    graph.ArgsAdapter
	PartialResults graph.RowsFilter
}

// DefaultOnSubGraphError returns err, failing the composition.
func DefaultOnSubGraphError(err error, _ string) error {
	return err
}

// validate applies defaults and checks the configuration. It never touches the
// network.
func (o *Options) validate() error {
	if o.QueryTypeName == "" {
		o.QueryTypeName = DefaultQueryTypeName
	}
	if o.MutationTypeName == "" {
		o.MutationTypeName = DefaultMutationTypeName
	}
	if o.QueryTypeName == o.MutationTypeName {
		return fmt.Errorf("%w: query and mutation type names must differ", ErrInvalidOptions)
	}
	if o.OnSubGraphError == nil {
		o.OnSubGraphError = DefaultOnSubGraphError
	}
	if o.Transport == nil {
		return fmt.Errorf("%w: transport is required", ErrInvalidOptions)
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must not be negative", ErrInvalidOptions)
	}

	names := make(map[string]struct{}, len(o.SubGraphs))
	for i, sub := range o.SubGraphs {
		if sub.Name == "" {
			return fmt.Errorf("%w: subgraphs[%d].name is required", ErrInvalidOptions, i)
		}
		if sub.Name == graph.ComposerSubGraph {
			return fmt.Errorf("%w: subgraph name %s is reserved", ErrInvalidOptions, sub.Name)
		}
		if _, ok := names[sub.Name]; ok {
			return fmt.Errorf("%w: subgraphs name %s is not unique", ErrInvalidOptions, sub.Name)
		}
		names[sub.Name] = struct{}{}

		if sub.Server.Host == "" {
			return fmt.Errorf("%w: subgraphs[%s].server.host is required", ErrInvalidOptions, sub.Name)
		}
	}

	for _, sub := range o.SubGraphs {
		for typeName, entity := range sub.Entities {
			if err := validateEntity(sub.Name, typeName, entity, names); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateEntity(subGraph, typeName string, entity EntityOption, names map[string]struct{}) error {
	name := fmt.Sprintf("subgraphs[%s].entities.%s", subGraph, typeName)
	if entity.PKey == "" {
		return fmt.Errorf("%w: %s.pkey is required", ErrInvalidOptions, name)
	}
	if err := validateResolver(entity.Resolver, name+".resolver"); err != nil {
		return err
	}

	for i, fk := range entity.FKeys {
		fkName := fmt.Sprintf("%s.fkeys[%d]", name, i)
		if fk.Type == "" {
			return fmt.Errorf("%w: %s.type is required", ErrInvalidOptions, fkName)
		}
		if fk.Field == "" && fk.PKey == "" {
			return fmt.Errorf("%w: %s needs field or pkey", ErrInvalidOptions, fkName)
		}
		if fk.SubGraph != "" {
			if _, ok := names[fk.SubGraph]; !ok {
				return fmt.Errorf("%w: %s.subgraph %s is unknown", ErrInvalidOptions, fkName, fk.SubGraph)
			}
		}
		if err := validateResolver(fk.Resolver, fkName+".resolver"); err != nil {
			return err
		}
	}

	for i, m := range entity.Many {
		manyName := fmt.Sprintf("%s.many[%d]", name, i)
		if m.Type == "" {
			return fmt.Errorf("%w: %s.type is required", ErrInvalidOptions, manyName)
		}
		if m.FKey == "" {
			return fmt.Errorf("%w: %s.fkey is required", ErrInvalidOptions, manyName)
		}
		if m.Resolver == nil {
			return fmt.Errorf("%w: %s.resolver is required", ErrInvalidOptions, manyName)
		}
		if m.SubGraph != "" {
			if _, ok := names[m.SubGraph]; !ok {
				return fmt.Errorf("%w: %s.subgraph %s is unknown", ErrInvalidOptions, manyName, m.SubGraph)
			}
		}
		if err := validateResolver(m.Resolver, manyName+".resolver"); err != nil {
			return err
		}
	}

	return nil
}

func validateResolver(r *ResolverOption, name string) error {
	if r == nil {
		return nil
	}
	if r.Name == "" {
		return fmt.Errorf("%w: %s.name is required", ErrInvalidOptions, name)
	}
	return nil
}

// subGraph converts a validated option into the catalog representation.
func (s SubGraphOption) subGraph() *graph.SubGraph {
	entities := make(map[string]*graph.Entity, len(s.Entities))
	for typeName, e := range s.Entities {
		entity := &graph.Entity{
			PKey:     e.PKey,
			Resolver: e.Resolver.resolver(),
		}
		for _, fk := range e.FKeys {
			sub := fk.SubGraph
			if sub == "" {
				sub = s.Name
			}
			entity.FKeys = append(entity.FKeys, graph.ForeignKey{
				Type:     fk.Type,
				Field:    fk.Field,
				PKey:     fk.PKey,
				As:       fk.As,
				SubGraph: sub,
				Resolver: fk.Resolver.resolver(),
			})
		}
		for _, m := range e.Many {
			sub := m.SubGraph
			if sub == "" {
				sub = s.Name
			}
			entity.Many = append(entity.Many, graph.Many{
				Type:     m.Type,
				As:       m.As,
				PKey:     m.PKey,
				FKey:     m.FKey,
				SubGraph: sub,
				Resolver: m.Resolver.resolver(),
			})
		}
		entities[typeName] = entity
	}

	return graph.NewSubGraph(s.Name, graph.Server{
		Host:            s.Server.Host,
		ComposeEndpoint: s.Server.ComposeEndpoint,
		GraphQLEndpoint: s.Server.GraphQLEndpoint,
	}, entities)
}

func (r *ResolverOption) resolver() *graph.Resolver {
	if r == nil {
		return nil
	}
	return &graph.Resolver{
		Name:           r.Name,
		ArgsAdapter:    r.ArgsAdapter,
		PartialResults: r.PartialResults,
	}
}
