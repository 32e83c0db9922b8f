package composer

import (
	"context"
	"fmt"

	"github.com/n9te9/go-graphql-composer/federation/executor"
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/planner"
	"github.com/n9te9/graphql-parser/ast"
)

// ResolveInfo is what a host engine knows about the root field being resolved.
type ResolveInfo struct {
	Field     *ast.Field                         // Client selection of the root field
	Fragments map[string]*ast.FragmentDefinition // Fragment definitions of the document
	Variables map[string]any                     // Request variables
}

// ResolverFunc resolves one root field. args overrides the arguments written on
// info.Field when non-nil.
type ResolverFunc func(ctx context.Context, args map[string]any, info *ResolveInfo) (any, error)

func (c *Composer) resolverFor(typeName, fieldName, operation string) ResolverFunc {
	fieldID := graph.FieldID(typeName, fieldName)

	return func(ctx context.Context, args map[string]any, info *ResolveInfo) (any, error) {
		owners := c.superGraph.FieldOwners(fieldID)
		if len(owners) == 0 {
			return nil, fmt.Errorf("%w: %s", planner.ErrUnresolvableField, fieldID)
		}
		subGraph := owners[0]

		if info == nil || info.Field == nil {
			info = &ResolveInfo{Field: &ast.Field{Name: &ast.Name{Value: fieldName}}}
		}

		rctx := planner.NewContext(c.logger.With().Str("field", fieldID).Logger(), info.Variables, info.Fragments)
		if c.options.MaxDepth > 0 {
			rctx.MaxDepth = c.options.MaxDepth
		}

		if args == nil {
			args = planner.ArgumentValues(info.Field.Arguments, info.Variables)
		}
		args = c.superGraph.CoerceArguments(subGraph, fieldID, args)

		nodes, err := c.planner.Plan(rctx, planner.CollectInput{
			SubGraph:  subGraph,
			FieldID:   fieldID,
			Field:     info.Field,
			Args:      args,
			Operation: operation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s: %w", fieldID, err)
		}

		result, err := c.executor.Execute(ctx, rctx, nodes)
		if err != nil {
			return nil, err
		}

		value := result[fieldName]
		if len(info.Field.SelectionSet) == 0 {
			return value, nil
		}
		return executor.Prune(value, info.Field.SelectionSet, rctx.Fragments), nil
	}
}
