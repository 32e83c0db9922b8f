package planner

import (
	"github.com/n9te9/graphql-parser/ast"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds the chain of deferred resolutions of one request.
const DefaultMaxDepth = 16

// Context carries the per-request state threaded through collection, building and
// execution. It is owned by a single request.
type Context struct {
	Logger    zerolog.Logger
	Variables map[string]any
	Fragments map[string]*ast.FragmentDefinition
	MaxDepth  int

	processed map[string]struct{}
}

// NewContext creates a request context.
func NewContext(logger zerolog.Logger, variables map[string]any, fragments map[string]*ast.FragmentDefinition) *Context {
	if fragments == nil {
		fragments = make(map[string]*ast.FragmentDefinition)
	}
	return &Context{
		Logger:    logger,
		Variables: variables,
		Fragments: fragments,
		MaxDepth:  DefaultMaxDepth,
		processed: make(map[string]struct{}),
	}
}

// markProcessed records key and reports whether it was seen for the first time.
func (c *Context) markProcessed(key string) bool {
	if _, ok := c.processed[key]; ok {
		return false
	}
	c.processed[key] = struct{}{}
	return true
}

func (c *Context) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// CollectFragments indexes the fragment definitions of a document by name.
func CollectFragments(doc *ast.Document) map[string]*ast.FragmentDefinition {
	fragments := make(map[string]*ast.FragmentDefinition)
	if doc == nil {
		return fragments
	}
	for _, def := range doc.Definitions {
		if fragDef, ok := def.(*ast.FragmentDefinition); ok {
			fragments[fragDef.Name.String()] = fragDef
		}
	}
	return fragments
}
