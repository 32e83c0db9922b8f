package gateway

import (
	"context"
	"fmt"

	"github.com/n9te9/go-graphql-composer/composer"
)

// executionEngine bundles the read-only state needed to serve requests. A new engine is
// built on every composition; a built engine is never modified.
type executionEngine struct {
	composer  *composer.Composer
	resolvers map[string]map[string]composer.ResolverFunc
	sdl       string

	queryTypeName    string
	mutationTypeName string
}

// buildEngine composes the subgraphs of opts.
func buildEngine(ctx context.Context, opts composer.Options) (*executionEngine, error) {
	c, err := composer.New(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Compose(ctx); err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	sdl, err := c.ToSDL()
	if err != nil {
		return nil, fmt.Errorf("failed to print merged schema: %w", err)
	}

	merged := c.SuperGraph().MergedSchema()
	return &executionEngine{
		composer:         c,
		resolvers:        c.Resolvers(),
		sdl:              sdl,
		queryTypeName:    merged.QueryType,
		mutationTypeName: merged.MutationType,
	}, nil
}

func (e *executionEngine) resolver(typeName, fieldName string) (composer.ResolverFunc, bool) {
	fn, ok := e.resolvers[typeName][fieldName]
	return fn, ok
}
