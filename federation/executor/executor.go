package executor

import (
	"context"
	"fmt"

	"github.com/n9te9/go-graphql-composer/federation/planner"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/n9te9/go-graphql-composer/federation/executor"

// Requester sends a query to a subgraph and returns the "data" object of the response.
// Responses carrying GraphQL errors are reported as errors.
type Requester interface {
	Execute(ctx context.Context, subGraph string, query string) (map[string]any, error)
}

// Executor runs planned query nodes one after the other.
type Executor struct {
	requester    Requester
	queryBuilder *QueryBuilder
	tracer       trace.Tracer
}

func NewExecutor(requester Requester) *Executor {
	return &Executor{
		requester:    requester,
		queryBuilder: NewQueryBuilder(),
		tracer:       otel.Tracer(tracerName),
	}
}

// Execute runs nodes in plan order and returns the merged result keyed by root path.
// A node's arguments may depend on rows merged by the nodes before it, so nodes are
// never run concurrently. The first failure aborts the remaining nodes.
func (e *Executor) Execute(ctx context.Context, rctx *planner.Context, nodes []*planner.QueryNode) (map[string]any, error) {
	shared := make(map[string]any)

	for _, node := range nodes {
		if err := e.executeNode(ctx, rctx.Logger, shared, node); err != nil {
			return nil, err
		}
	}

	return shared, nil
}

func (e *Executor) executeNode(ctx context.Context, logger zerolog.Logger, shared map[string]any, node *planner.QueryNode) error {
	built, err := e.queryBuilder.Build(node, shared)
	if err != nil {
		return err
	}
	if built == nil {
		logger.Debug().Str("subgraph", node.SubGraph).Str("path", node.Path).Msg("no parent rows, skipping query")
		node.SetResult(nil, nil)
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "composer.subgraph_query", trace.WithAttributes(
		attribute.String("graphql.subgraph", node.SubGraph),
		attribute.String("graphql.path", node.Path),
		attribute.String("graphql.field", built.RootField),
		attribute.Int("composer.parent_rows", len(built.Rows)),
	))
	defer span.End()

	logger.Debug().
		Str("subgraph", node.SubGraph).
		Str("path", node.Path).
		Str("query", built.Text).
		Msg("executing subgraph query")

	data, err := e.requester.Execute(ctx, node.SubGraph, built.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to execute query on %s at %s: %w", node.SubGraph, node.Path, err)
	}

	node.SetResult(data[built.RootField], built.Keys)
	Merge(shared, node)

	return nil
}
