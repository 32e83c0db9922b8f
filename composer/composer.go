package composer

import (
	"context"
	"errors"
	"fmt"

	"github.com/n9te9/go-graphql-composer/federation/executor"
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/introspection"
	"github.com/n9te9/go-graphql-composer/federation/planner"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotComposed     = errors.New("schema is not composed")
	ErrUnknownSubGraph = errors.New("unknown subgraph")
)

// Composer merges the schemas of several subgraphs and resolves the root fields of the
// merged schema by querying them.
type Composer struct {
	options    Options
	logger     zerolog.Logger
	subGraphs  []*graph.SubGraph
	superGraph *graph.SuperGraph
	planner    *planner.Planner
	executor   *executor.Executor
	resolvers  map[string]map[string]ResolverFunc
}

// New validates opts and returns a Composer ready to Compose.
func New(opts Options) (*Composer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	subGraphs := make([]*graph.SubGraph, 0, len(opts.SubGraphs))
	for _, sub := range opts.SubGraphs {
		subGraphs = append(subGraphs, sub.subGraph())
	}

	return &Composer{
		options:   opts,
		logger:    opts.Logger,
		subGraphs: subGraphs,
	}, nil
}

// Compose fetches every subgraph schema, merges them and builds the root resolvers.
// A subgraph that cannot be fetched is handed to OnSubGraphError; it is left out of the
// composition unless the callback returns an error.
func (c *Composer) Compose(ctx context.Context) error {
	schemas := make([]*introspection.Schema, len(c.subGraphs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, sub := range c.subGraphs {
		eg.Go(func() error {
			schema, err := c.options.Transport.FetchIntrospection(egCtx, sub.Server)
			if err != nil {
				c.logger.Warn().Err(err).Str("subgraph", sub.Name).Msg("failed to fetch subgraph schema")
				if cbErr := c.options.OnSubGraphError(err, sub.Name); cbErr != nil {
					return fmt.Errorf("failed to compose %s: %w", sub.Name, cbErr)
				}
				return nil
			}
			schemas[i] = schema
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	superGraph := graph.NewSuperGraph(c.options.QueryTypeName, c.options.MutationTypeName)
	for i, sub := range c.subGraphs {
		if schemas[i] == nil {
			continue
		}
		for _, warn := range superGraph.MergeIntrospection(sub, schemas[i]) {
			c.logger.Warn().Err(warn).Str("subgraph", sub.Name).Msg("duplicate registration, keeping the first one")
		}
	}

	if c.options.AddEntitiesResolvers {
		for _, warn := range superGraph.AddLinks() {
			c.logger.Warn().Err(warn).Msg("link field not published")
		}
	}

	superGraph.BuildMergedSchema()

	c.superGraph = superGraph
	c.planner = planner.NewPlanner(superGraph, c.options.DefaultArgsAdapter)
	c.executor = executor.NewExecutor(&requester{transport: c.options.Transport, superGraph: superGraph})
	c.resolvers = c.buildResolvers()

	c.logger.Info().
		Int("subgraphs", len(superGraph.SubGraphs)).
		Int("types", len(superGraph.MergedSchema().Types)).
		Msg("schema composed")

	return nil
}

// SuperGraph returns the catalog built by Compose.
func (c *Composer) SuperGraph() *graph.SuperGraph {
	return c.superGraph
}

// ToSDL prints the merged schema.
func (c *Composer) ToSDL() (string, error) {
	if c.superGraph == nil || c.superGraph.MergedSchema() == nil {
		return "", ErrNotComposed
	}
	return c.superGraph.MergedSchema().SDL()
}

// Resolvers returns a copy of the root field resolvers keyed by type then field name.
func (c *Composer) Resolvers() map[string]map[string]ResolverFunc {
	out := make(map[string]map[string]ResolverFunc, len(c.resolvers))
	for typeName, fields := range c.resolvers {
		copied := make(map[string]ResolverFunc, len(fields))
		for name, fn := range fields {
			copied[name] = fn
		}
		out[typeName] = copied
	}
	return out
}

func (c *Composer) buildResolvers() map[string]map[string]ResolverFunc {
	resolvers := make(map[string]map[string]ResolverFunc)
	merged := c.superGraph.MergedSchema()

	for _, rootType := range []struct {
		name      string
		operation string
	}{
		{merged.QueryType, planner.OperationQuery},
		{merged.MutationType, planner.OperationMutation},
	} {
		if rootType.name == "" {
			continue
		}
		mt := merged.Type(rootType.name)
		fields := make(map[string]ResolverFunc, len(mt.Fields))
		for _, f := range mt.Fields {
			fields[f.Name] = c.resolverFor(rootType.name, f.Name, rootType.operation)
		}
		resolvers[rootType.name] = fields
	}

	return resolvers
}

// requester routes executor requests to the subgraph servers of the catalog.
type requester struct {
	transport  Transport
	superGraph *graph.SuperGraph
}

func (r *requester) Execute(ctx context.Context, subGraph string, query string) (map[string]any, error) {
	sub := r.superGraph.SubGraph(subGraph)
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubGraph, subGraph)
	}
	return r.transport.Execute(ctx, sub.Server, query)
}
