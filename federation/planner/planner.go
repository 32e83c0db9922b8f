package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

var (
	ErrUnresolvableField = errors.New("unresolvable field")
	ErrMaxDepth          = errors.New("deferred resolution depth exceeded")
)

// Planner turns one root field selection into the ordered list of executable nodes,
// resolving deferred groups against their owning subgraphs.
type Planner struct {
	superGraph         *graph.SuperGraph
	collector          *Collector
	defaultArgsAdapter func(pkey string) graph.ArgsAdapter
}

// NewPlanner creates a Planner. defaultArgsAdapter builds the adapter used by resolvers
// configured without one; nil means graph.PKeyArgsAdapter.
func NewPlanner(superGraph *graph.SuperGraph, defaultArgsAdapter func(pkey string) graph.ArgsAdapter) *Planner {
	if defaultArgsAdapter == nil {
		defaultArgsAdapter = func(pkey string) graph.ArgsAdapter {
			return graph.PKeyArgsAdapter{PKey: pkey}
		}
	}
	return &Planner{
		superGraph:         superGraph,
		collector:          NewCollector(superGraph),
		defaultArgsAdapter: defaultArgsAdapter,
	}
}

// Plan collects in and expands every deferred group. Nodes are returned parent-first,
// depth-first; this order is the execution order.
func (p *Planner) Plan(ctx *Context, in CollectInput) ([]*QueryNode, error) {
	collected, err := p.collector.Collect(ctx, in)
	if err != nil {
		return nil, err
	}

	planned := NewOrderedMap[*QueryNode]()
	p.addNodes(ctx, planned, collected.Queries)
	if err := p.expand(ctx, planned, collected.Deferreds, 0); err != nil {
		return nil, err
	}

	return planned.Values(), nil
}

func (p *Planner) expand(ctx *Context, planned *OrderedMap[*QueryNode], deferreds *OrderedMap[*DeferredQuery], depth int) error {
	for _, dq := range deferreds.Values() {
		if !ctx.markProcessed(dq.Node.SubGraph + ":" + dq.Key) {
			continue
		}
		if depth >= ctx.maxDepth() {
			return fmt.Errorf("%w: %s at depth %d", ErrMaxDepth, dq.Path, depth)
		}

		collected, err := p.ResolveDeferred(ctx, dq)
		if err != nil {
			return err
		}
		p.addNodes(ctx, planned, collected.Queries)
		if err := p.expand(ctx, planned, collected.Deferreds, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) addNodes(ctx *Context, planned *OrderedMap[*QueryNode], queries *OrderedMap[*QueryNode]) {
	for _, node := range queries.Values() {
		if !planned.Set(node.Key(), node) {
			ctx.Logger.Warn().
				Str("subgraph", node.SubGraph).
				Str("path", node.Path).
				Msg("query path conflict, keeping the first node")
		}
	}
}

// joinPlan is one follow-up query of a deferred group.
type joinPlan struct {
	subGraph   string
	typeName   string
	path       string
	selections []ast.Selection
	resolver   *graph.Resolver
	join       *Join
	keyNode    *QueryNode
}

// ResolveDeferred turns a deferred group into query nodes on the owning subgraphs.
// Fields of the group owned by the same subgraph and joined through the same entity
// become one query.
func (p *Planner) ResolveDeferred(ctx *Context, dq *DeferredQuery) (*Collected, error) {
	var plans []*joinPlan
	entityFields := NewOrderedMap[*[]string]()

	for _, name := range dq.Fields {
		id := graph.FieldID(dq.TypeName, name)
		owners := p.superGraph.FieldOwners(id)
		if len(owners) == 0 {
			return nil, fmt.Errorf("%w: %s is not declared by any subgraph", ErrUnresolvableField, id)
		}
		// multiple owners are not balanced, the first registration answers
		target := owners[0]
		field := p.superGraph.Field(id, target)

		if field.Link != nil {
			plan, err := p.linkPlan(dq, field)
			if err != nil {
				return nil, err
			}
			plans = append(plans, plan)
			continue
		}

		if m, parent := p.manyFor(dq, field); m != nil {
			plan, err := p.manyPlan(dq, field, m, parent)
			if err != nil {
				return nil, err
			}
			plans = append(plans, plan)
			continue
		}

		names, ok := entityFields.Get(target)
		if !ok {
			names = new([]string)
			entityFields.Set(target, names)
		}
		*names = append(*names, name)
	}

	for _, target := range entityFields.Keys() {
		names, _ := entityFields.Get(target)
		plan, err := p.entityPlan(dq, target, *names)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	out := newCollected()
	for _, plan := range plans {
		if err := p.collectPlan(ctx, dq, plan, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Planner) collectPlan(ctx *Context, dq *DeferredQuery, plan *joinPlan, out *Collected) error {
	collected, err := p.collector.Collect(ctx, CollectInput{
		SubGraph:   plan.subGraph,
		TypeName:   plan.typeName,
		Selections: plan.selections,
		Path:       plan.path,
		Parent:     dq.Node,
		Resolver:   plan.resolver,
		Operation:  OperationQuery,
	})
	if err != nil {
		return err
	}

	for _, node := range collected.Queries.Values() {
		node.Join = plan.join
		node.Query.Selection = append([]SelectionItem{&KeyField{Path: plan.join.ChildKey}}, node.Query.Selection...)
		out.Queries.Set(node.Key(), node)
	}
	for _, child := range collected.Deferreds.Values() {
		out.Deferreds.Set(child.Node.SubGraph+":"+child.Key, child)
	}

	dq.SubGraphs = append(dq.SubGraphs, plan.subGraph)
	dq.Keys = append(dq.Keys, JoinKey{Node: plan.keyNode, Path: plan.join.ParentKey})

	ctx.Logger.Debug().
		Str("subgraph", plan.subGraph).
		Str("path", plan.path).
		Str("parent_key", plan.join.ParentKey).
		Str("child_key", plan.join.ChildKey).
		Msg("deferred group resolved")

	return nil
}

// entityPlan joins fields of the parent type owned by target. The enclosing row's
// foreign key is preferred over the entity's pkey resolver.
func (p *Planner) entityPlan(dq *DeferredQuery, target string, names []string) (*joinPlan, error) {
	child := p.superGraph.GetEntity(dq.TypeName, target)
	if child == nil {
		return nil, fmt.Errorf("%w: no entity %s configured on %s for %s", ErrUnresolvableField, dq.TypeName, target, strings.Join(names, ", "))
	}

	if fk, row := p.foreignKeyFor(dq, target); fk != nil {
		childKey := fk.PKey
		if childKey == "" {
			childKey = child.PKey
		}
		resolver, borrowed := fk.Resolver, false
		if resolver == nil {
			resolver, borrowed = child.Resolver, true
		}
		if resolver == nil {
			return nil, fmt.Errorf("%w: no resolver for %s on %s", ErrUnresolvableField, dq.TypeName, target)
		}

		join := &Join{
			RowsPath:  row.Path,
			ParentKey: fk.LocalKey(),
			ChildKey:  childKey,
			Suffix:    []string{dq.Node.Name()},
		}
		keyNode := row
		// A key read through the deferred field itself is joined on that field's rows,
		// so list values are walked element by element.
		if rest, ok := strings.CutPrefix(fk.LocalKey(), dq.Node.Name()+"."); ok {
			join = &Join{
				RowsPath:  dq.Path,
				ParentKey: rest,
				ChildKey:  childKey,
			}
			keyNode = dq.Node
		}

		return &joinPlan{
			subGraph:   target,
			typeName:   dq.TypeName,
			path:       dq.Path,
			selections: dq.selections(names),
			resolver:   p.withDefaults(resolver, join.ParentKey, childKey, borrowed),
			join:       join,
			keyNode:    keyNode,
		}, nil
	}

	if child.Resolver == nil {
		return nil, fmt.Errorf("%w: entity %s on %s has no resolver", ErrUnresolvableField, dq.TypeName, target)
	}
	parentKey := child.PKey
	if local := p.superGraph.GetEntity(dq.TypeName, dq.Node.SubGraph); local != nil {
		parentKey = local.PKey
	}
	return &joinPlan{
		subGraph:   target,
		typeName:   dq.TypeName,
		path:       dq.Path,
		selections: dq.selections(names),
		resolver:   p.withDefaults(child.Resolver, parentKey, child.PKey, true),
		join: &Join{
			RowsPath:  dq.Path,
			ParentKey: parentKey,
			ChildKey:  child.PKey,
		},
		keyNode: dq.Node,
	}, nil
}

// foreignKeyFor finds a foreign key of the row enclosing dq.Node that points to the
// deferred type on target. Only nodes embedded in their parent's query qualify.
func (p *Planner) foreignKeyFor(dq *DeferredQuery, target string) (*graph.ForeignKey, *QueryNode) {
	row := dq.Node.Parent
	if dq.Node.Root || row == nil || row.SubGraph != dq.Node.SubGraph {
		return nil, nil
	}
	entity := p.superGraph.GetEntity(row.TypeName, row.SubGraph)
	if entity == nil {
		return nil, nil
	}

	var found *graph.ForeignKey
	for i := range entity.FKeys {
		fk := &entity.FKeys[i]
		if fk.Type != dq.TypeName || fk.SubGraph != target || fk.As != "" {
			continue
		}
		if strings.HasPrefix(fk.LocalKey(), dq.Node.Name()+".") {
			return fk, row
		}
		if found == nil {
			found = fk
		}
	}
	if found == nil {
		return nil, nil
	}
	return found, row
}

// manyFor finds a many relation of the parent entity answering field.
func (p *Planner) manyFor(dq *DeferredQuery, field *graph.Field) (*graph.Many, *graph.Entity) {
	parent := p.superGraph.GetEntity(dq.TypeName, dq.Node.SubGraph)
	if parent == nil {
		return nil, nil
	}
	for i := range parent.Many {
		m := &parent.Many[i]
		if m.SubGraph != field.SubGraph || m.Type != field.TypeName {
			continue
		}
		if m.As == "" || m.As == field.Name {
			return m, parent
		}
	}
	return nil, nil
}

func (p *Planner) manyPlan(dq *DeferredQuery, field *graph.Field, m *graph.Many, parent *graph.Entity) (*joinPlan, error) {
	parentKey := m.PKey
	if parentKey == "" && parent != nil {
		parentKey = parent.PKey
	}
	resolver := m.Resolver
	if resolver == nil {
		return nil, fmt.Errorf("%w: many relation %s.%s has no resolver", ErrUnresolvableField, dq.TypeName, field.Name)
	}

	return &joinPlan{
		subGraph:   m.SubGraph,
		typeName:   m.Type,
		path:       joinPath(dq.Path, field.Name),
		selections: dq.subSelections(field.Name),
		resolver:   p.withDefaults(resolver, parentKey, m.FKey, false),
		join: &Join{
			RowsPath:  dq.Path,
			ParentKey: parentKey,
			ChildKey:  m.FKey,
			Suffix:    []string{field.Name},
			Many:      true,
		},
		keyNode: dq.Node,
	}, nil
}

// linkPlan resolves a link field published by the composer from entity configuration.
func (p *Planner) linkPlan(dq *DeferredQuery, field *graph.Field) (*joinPlan, error) {
	link := field.Link
	if link.Many != nil {
		parent := p.superGraph.GetEntity(dq.TypeName, link.SubGraph)
		return p.manyPlan(dq, field, link.Many, parent)
	}

	fk := link.ForeignKey
	target := p.superGraph.GetEntity(fk.Type, fk.SubGraph)
	childKey := fk.PKey
	if childKey == "" && target != nil {
		childKey = target.PKey
	}
	resolver, borrowed := fk.Resolver, false
	if resolver == nil && target != nil {
		resolver, borrowed = target.Resolver, true
	}
	if resolver == nil || childKey == "" {
		return nil, fmt.Errorf("%w: link %s.%s has no resolver for %s on %s", ErrUnresolvableField, dq.TypeName, field.Name, fk.Type, fk.SubGraph)
	}

	return &joinPlan{
		subGraph:   fk.SubGraph,
		typeName:   fk.Type,
		path:       joinPath(dq.Path, field.Name),
		selections: dq.subSelections(field.Name),
		resolver:   p.withDefaults(resolver, fk.LocalKey(), childKey, borrowed),
		join: &Join{
			RowsPath:  dq.Path,
			ParentKey: fk.LocalKey(),
			ChildKey:  childKey,
			Suffix:    []string{field.Name},
		},
		keyNode: dq.Node,
	}, nil
}

// withDefaults fills a resolver without adapter with the default one. Rows are
// projected from the parent key to the child key when the adapter expects child-keyed
// rows: always for a resolver borrowed from the target entity, and for the default
// adapter.
func (p *Planner) withDefaults(resolver *graph.Resolver, parentKey, childKey string, borrowed bool) *graph.Resolver {
	r := *resolver
	defaulted := r.ArgsAdapter == nil
	if defaulted {
		r.ArgsAdapter = p.defaultArgsAdapter(childKey)
	}
	if r.PartialResults == nil && parentKey != childKey && (defaulted || borrowed) {
		r.PartialResults = graph.KeyProjection{From: parentKey, To: childKey}
	}
	return &r
}
