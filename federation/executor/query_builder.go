package executor

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/planner"
)

var ErrMissingResolver = errors.New("missing resolver")

// BuiltQuery is the rendered request of one query node.
type BuiltQuery struct {
	Text      string           // Query document sent to the subgraph
	RootField string           // Remote root field; the response data key
	Keys      []string         // Key columns rendered for later joins
	Rows      []map[string]any // Parent rows the arguments were computed from
}

// QueryBuilder renders query nodes into query text.
type QueryBuilder struct{}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build renders node. Nodes produced by deferred resolution compute their arguments
// from the parent rows found in shared; Build returns nil when there are none.
func (qb *QueryBuilder) Build(node *planner.QueryNode, shared map[string]any) (*BuiltQuery, error) {
	resolver := node.Query.Resolver
	if resolver == nil || resolver.Name == "" {
		return nil, fmt.Errorf("%w: %s on %s", ErrMissingResolver, node.Path, node.SubGraph)
	}

	built := &BuiltQuery{RootField: resolver.Name}

	args := node.Query.Args
	if node.Join != nil {
		rows := RowsAt(shared, node.Join.RowsPath)
		if len(rows) == 0 {
			return nil, nil
		}
		built.Rows = rows

		var err error
		if resolver.PartialResults != nil {
			rows, err = resolver.PartialResults.FilterRows(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to filter rows for %s: %w", resolver.Name, err)
			}
		}
		if resolver.ArgsAdapter != nil {
			args, err = resolver.ArgsAdapter.AdaptArgs(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to adapt args for %s: %w", resolver.Name, err)
			}
		}
	}

	set := newSelectionSet()
	qb.collect(set, node, node.Query.Selection, &built.Keys)

	operation := node.Query.Operation
	if operation == "" {
		operation = planner.OperationQuery
	}

	var sb strings.Builder
	sb.WriteString(operation)
	sb.WriteString(" { ")
	sb.WriteString(resolver.Name)
	writeArgs(&sb, args)
	if !set.empty() {
		sb.WriteString(" ")
		set.write(&sb)
	}
	sb.WriteString(" }")
	built.Text = sb.String()

	return built, nil
}

func (qb *QueryBuilder) collect(set *selectionSet, node *planner.QueryNode, items []planner.SelectionItem, keys *[]string) {
	for _, item := range items {
		switch it := item.(type) {
		case *planner.PlainField:
			set.leaf(it.Name, it.Args)
		case *planner.KeyField:
			set.path(it.Path)
			*keys = append(*keys, it.Path)
		case *planner.NestedSelection:
			child := newSelectionSet()
			qb.collect(child, it.Node, it.Node.Query.Selection, keys)
			if child.empty() {
				continue
			}
			set.nested(it.Name, it.Args, child)
		case *planner.DeferredGroup:
			for _, key := range it.Deferred.KeysFor(node) {
				set.path(key)
				*keys = append(*keys, key)
			}
		}
	}
}

// selectionSet is an ordered, deduplicated selection set.
type selectionSet struct {
	order []string
	items map[string]*selection
}

type selection struct {
	name     string
	args     string
	children *selectionSet
}

func newSelectionSet() *selectionSet {
	return &selectionSet{items: make(map[string]*selection)}
}

func (s *selectionSet) empty() bool {
	return len(s.order) == 0
}

func (s *selectionSet) get(name string, args map[string]any) *selection {
	rendered := renderArgs(args)
	key := name + rendered
	if sel, ok := s.items[key]; ok {
		return sel
	}
	sel := &selection{name: name, args: rendered}
	s.items[key] = sel
	s.order = append(s.order, key)
	return sel
}

func (s *selectionSet) leaf(name string, args map[string]any) {
	s.get(name, args)
}

// path adds a dotted key, expanding it into nested selections.
func (s *selectionSet) path(path string) {
	segs := strings.Split(path, ".")
	cur := s
	for i, seg := range segs {
		sel := cur.get(seg, nil)
		if i == len(segs)-1 {
			return
		}
		if sel.children == nil {
			sel.children = newSelectionSet()
		}
		cur = sel.children
	}
}

func (s *selectionSet) nested(name string, args map[string]any, children *selectionSet) {
	sel := s.get(name, args)
	if sel.children == nil {
		sel.children = children
		return
	}
	sel.children.merge(children)
}

func (s *selectionSet) merge(other *selectionSet) {
	for _, key := range other.order {
		src := other.items[key]
		dst, ok := s.items[key]
		if !ok {
			s.items[key] = src
			s.order = append(s.order, key)
			continue
		}
		if src.children == nil {
			continue
		}
		if dst.children == nil {
			dst.children = newSelectionSet()
		}
		dst.children.merge(src.children)
	}
}

func (s *selectionSet) write(sb *strings.Builder) {
	sb.WriteString("{ ")
	for i, key := range s.order {
		if i > 0 {
			sb.WriteString(" ")
		}
		sel := s.items[key]
		sb.WriteString(sel.name)
		sb.WriteString(sel.args)
		if sel.children != nil && !sel.children.empty() {
			sb.WriteString(" ")
			sel.children.write(sb)
		}
	}
	sb.WriteString(" }")
}

func writeArgs(sb *strings.Builder, args map[string]any) {
	sb.WriteString(renderArgs(args))
}

// renderArgs renders "(a: 1, b: "x")" with sorted keys. Null values are left out at
// every depth and an empty set renders nothing.
func renderArgs(args map[string]any) string {
	body := renderFields(args)
	if body == "" {
		return ""
	}
	return "(" + body + ")"
}

func renderFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+renderValue(fields[k]))
	}
	return strings.Join(parts, ", ")
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case graph.EnumValue:
		return string(val)
	case string:
		b, err := json.Marshal(val)
		if err != nil {
			return strconv.Quote(val)
		}
		return string(b)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			items = append(items, renderValue(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []string:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, renderValue(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []map[string]any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, renderValue(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		return "{" + renderFields(val) + "}"
	default:
		return fmt.Sprint(val)
	}
}
