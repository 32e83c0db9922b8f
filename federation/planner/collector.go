package planner

import (
	"errors"
	"fmt"

	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/introspection"
	"github.com/n9te9/graphql-parser/ast"
)

const (
	OperationQuery    = "query"
	OperationMutation = "mutation"
)

var (
	ErrCatalogDesync   = errors.New("catalog desync")
	ErrUnknownFragment = errors.New("unknown fragment")
)

// Collector walks a client selection against one subgraph's view of the catalog and
// splits it into query nodes and deferred groups.
type Collector struct {
	superGraph *graph.SuperGraph
	views      map[string]*graph.SubGraphView
}

// NewCollector projects superGraph once per subgraph. The catalog must be complete.
func NewCollector(superGraph *graph.SuperGraph) *Collector {
	views := make(map[string]*graph.SubGraphView, len(superGraph.SubGraphs))
	for _, sub := range superGraph.SubGraphs {
		views[sub.Name] = superGraph.View(sub.Name)
	}
	return &Collector{superGraph: superGraph, views: views}
}

func (c *Collector) view(subGraph string) *graph.SubGraphView {
	if v, ok := c.views[subGraph]; ok {
		return v
	}
	return c.superGraph.View(subGraph)
}

// CollectInput describes the root of one collection.
type CollectInput struct {
	SubGraph   string          // Subgraph the node is collected for
	FieldID    string          // Root field ("Query.books"); optional when TypeName is set
	Field      *ast.Field      // Client selection of the root field
	Selections []ast.Selection // Overrides Field.SelectionSet; the node itself is the query root
	TypeName   string          // Row type when there is no FieldID
	Path       string          // Node path; defaults to the field name
	Parent     *QueryNode
	Args       map[string]any
	Resolver   *graph.Resolver // Defaults to the root field's resolver
	Operation  string          // Defaults to "query"
}

// Collect builds the query node for in and the deferred groups found under it.
func (c *Collector) Collect(ctx *Context, in CollectInput) (*Collected, error) {
	var field *graph.Field
	if in.FieldID != "" {
		field = c.view(in.SubGraph).Field(in.FieldID)
		if field == nil {
			return nil, fmt.Errorf("%w: %s is not declared by %s", ErrCatalogDesync, in.FieldID, in.SubGraph)
		}
	}

	typeName := in.TypeName
	if typeName == "" && field != nil {
		typeName = field.TypeName
	}
	if typeName == "" {
		return nil, fmt.Errorf("%w: no type to collect on %s", ErrCatalogDesync, in.SubGraph)
	}

	path := in.Path
	if path == "" && field != nil {
		path = field.Name
	}

	resolver := in.Resolver
	if resolver == nil && field != nil {
		resolver = field.Resolver
	}

	operation := in.Operation
	if operation == "" {
		operation = OperationQuery
	}

	node := &QueryNode{
		SubGraph:  in.SubGraph,
		Path:      path,
		TypeName:  typeName,
		Field:     field,
		Selection: in.Field,
		Parent:    in.Parent,
		Root:      true,
		Query: Query{
			Operation: operation,
			Resolver:  resolver,
			Args:      in.Args,
		},
	}

	out := newCollected()

	selections := in.Selections
	if selections == nil && in.Field != nil {
		selections = in.Field.SelectionSet
	}
	if len(selections) == 0 || c.isLeaf(typeName) {
		// root scalar: the node is the whole unit of work
		out.Queries.Set(node.Path, node)
		return out, nil
	}

	if err := c.collectSelections(ctx, node, typeName, selections, out.Deferreds); err != nil {
		return nil, err
	}
	if len(node.Query.Selection) > 0 {
		out.Queries.Set(node.Path, node)
	}

	return out, nil
}

func (c *Collector) isLeaf(typeName string) bool {
	switch c.superGraph.TypeKind(typeName) {
	case introspection.KindScalar, introspection.KindEnum:
		return true
	}
	return false
}

// collectSelections appends the items of selections to node. Fragments are spliced in
// place.
func (c *Collector) collectSelections(
	ctx *Context,
	node *QueryNode,
	typeName string,
	selections []ast.Selection,
	deferreds *OrderedMap[*DeferredQuery],
) error {
	for _, selection := range selections {
		switch sel := selection.(type) {
		case *ast.Field:
			if err := c.collectField(ctx, node, typeName, sel, deferreds); err != nil {
				return err
			}

		case *ast.InlineFragment:
			cond := typeName
			if sel.TypeCondition != nil && sel.TypeCondition.Name != nil {
				cond = sel.TypeCondition.Name.String()
			}
			if err := c.collectSelections(ctx, node, cond, sel.SelectionSet, deferreds); err != nil {
				return err
			}

		case *ast.FragmentSpread:
			name := sel.Name.String()
			fragDef, ok := ctx.Fragments[name]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownFragment, name)
			}
			cond := typeName
			if fragDef.TypeCondition != nil && fragDef.TypeCondition.Name != nil {
				cond = fragDef.TypeCondition.Name.String()
			}
			if err := c.collectSelections(ctx, node, cond, fragDef.SelectionSet, deferreds); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *Collector) collectField(
	ctx *Context,
	node *QueryNode,
	typeName string,
	sel *ast.Field,
	deferreds *OrderedMap[*DeferredQuery],
) error {
	name := sel.Name.String()

	if introspection.IsReserved(name) {
		node.add(&PlainField{Name: name})
		return nil
	}

	var field *graph.Field
	if t := c.view(node.SubGraph).Type(typeName); t != nil {
		field = t.Fields[name]
	}
	if field == nil {
		c.deferField(node, typeName, name, sel, deferreds)
		return nil
	}

	args := ArgumentValues(sel.Arguments, ctx.Variables)
	args = c.superGraph.CoerceArguments(node.SubGraph, field.ID(), args)

	if len(sel.SelectionSet) == 0 {
		node.add(&PlainField{Name: name, Args: args})
		return nil
	}

	child := &QueryNode{
		SubGraph:  node.SubGraph,
		Path:      joinPath(node.Path, name),
		TypeName:  field.TypeName,
		Field:     field,
		Selection: sel,
		Parent:    node,
		Query:     Query{Operation: node.Query.Operation},
	}
	childDeferreds := NewOrderedMap[*DeferredQuery]()
	if err := c.collectSelections(ctx, child, field.TypeName, sel.SelectionSet, childDeferreds); err != nil {
		return err
	}

	if len(child.Query.Selection) > 0 {
		node.add(&NestedSelection{Name: name, Args: args, Node: child})
	}

	for _, dq := range childDeferreds.Values() {
		existing, ok := deferreds.Get(dq.Key)
		if ok {
			// the same path selected twice, fold into the first group
			existing.merge(dq)
			continue
		}
		deferreds.Set(dq.Key, dq)
		node.add(&DeferredGroup{Deferred: dq})
	}

	return nil
}

func (c *Collector) deferField(
	node *QueryNode,
	typeName, name string,
	sel *ast.Field,
	deferreds *OrderedMap[*DeferredQuery],
) {
	dq, ok := deferreds.Get(node.Path)
	if !ok {
		dq = newDeferredQuery(node, typeName)
		deferreds.Set(dq.Key, dq)
		node.add(&DeferredGroup{Deferred: dq})
	}
	dq.addField(name, sel)
}
