package planner

import (
	"strings"

	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// Query is the executable payload of a QueryNode.
type Query struct {
	Operation string          // "query" or "mutation"
	Resolver  *graph.Resolver // Remote root field
	Selection []SelectionItem // Rendered selection set
	Args      map[string]any  // Arguments of the remote root field
}

// Join tells the merger where the rows of a node fetched by deferred resolution land.
type Join struct {
	RowsPath  string   // Absolute path of the parent rows
	ParentKey string   // Key path read on the parent rows
	ChildKey  string   // Key path read on the fetched rows
	Suffix    []string // Path under each parent row receiving the data; empty merges into the row
	Many      bool     // Suffix receives the list of every matching row
}

// QueryNode is a locally resolvable operation against exactly one subgraph.
// Nested nodes are rendered inside their parent; only Root nodes are executed.
type QueryNode struct {
	SubGraph  string       // Subgraph answering the node
	Path      string       // Dot path from the request root
	TypeName  string       // Type of the rows at Path
	Field     *graph.Field // Owning field, nil for nodes built from a deferred group
	Selection *ast.Field   // Originating client selection, if any
	Parent    *QueryNode   // Weak back-reference used for dependency lookup
	Query     Query
	Join      *Join // Set on nodes produced by deferred resolution
	Root      bool  // Executed as its own request

	Result any      // Raw result, set once executed
	Keys   []string // Keys rendered into the executed query

	fetched bool
}

// Name returns the last segment of the node path.
func (n *QueryNode) Name() string {
	return lastSegment(n.Path)
}

// Key identifies an executable node in a plan.
func (n *QueryNode) Key() string {
	return n.SubGraph + ":" + n.Path
}

// SetResult records the raw result and the keys used to fetch it.
func (n *QueryNode) SetResult(result any, keys []string) {
	n.Result = result
	n.Keys = keys
	n.fetched = true
}

// Fetched reports whether the node has been executed.
func (n *QueryNode) Fetched() bool {
	return n.fetched
}

func (n *QueryNode) add(item SelectionItem) {
	n.Query.Selection = append(n.Query.Selection, item)
}

// SelectionItem is one of PlainField, KeyField, NestedSelection or DeferredGroup.
type SelectionItem interface {
	selectionItem()
}

// PlainField is a field answered by the node's subgraph.
type PlainField struct {
	Name string
	Args map[string]any
}

// KeyField is an entity key injected for a later join. Path may be dotted.
type KeyField struct {
	Path string
}

// NestedSelection is an object field answered by the same subgraph.
type NestedSelection struct {
	Name string
	Args map[string]any
	Node *QueryNode
}

// DeferredGroup stands for fields resolved elsewhere; it renders the join keys that
// the group needs at this level.
type DeferredGroup struct {
	Deferred *DeferredQuery
}

func (*PlainField) selectionItem()      {}
func (*KeyField) selectionItem()        {}
func (*NestedSelection) selectionItem() {}
func (*DeferredGroup) selectionItem()   {}

// JoinKey is a key column a resolved deferred group needs on a given node.
type JoinKey struct {
	Node *QueryNode
	Path string
}

// DeferredQuery groups sibling fields that the node's subgraph cannot answer.
type DeferredQuery struct {
	Key         string                  // Group key
	Node        *QueryNode              // Node holding the deferred fields
	TypeName    string                  // Type declaring the fields
	Path        string                  // Path of Node
	ParentField string                  // Name of the field Node stands for
	Fields      []string                // Deferred field names in first-seen order
	Selections  map[string][]*ast.Field // Client selections per field name

	SubGraphs []string  // Resolved target subgraphs
	Keys      []JoinKey // Parent side join keys
}

func newDeferredQuery(node *QueryNode, typeName string) *DeferredQuery {
	return &DeferredQuery{
		Key:         node.Path,
		Node:        node,
		TypeName:    typeName,
		Path:        node.Path,
		ParentField: node.Name(),
		Selections:  make(map[string][]*ast.Field),
	}
}

func (dq *DeferredQuery) addField(name string, sel *ast.Field) {
	if _, ok := dq.Selections[name]; !ok {
		dq.Fields = append(dq.Fields, name)
	}
	dq.Selections[name] = append(dq.Selections[name], sel)
}

func (dq *DeferredQuery) merge(other *DeferredQuery) {
	for _, name := range other.Fields {
		for _, sel := range other.Selections[name] {
			dq.addField(name, sel)
		}
	}
}

// KeysFor returns the join keys that must be rendered on node.
func (dq *DeferredQuery) KeysFor(node *QueryNode) []string {
	var keys []string
	for _, k := range dq.Keys {
		if k.Node == node {
			keys = append(keys, k.Path)
		}
	}
	return keys
}

// selections returns the client selections of the given fields.
func (dq *DeferredQuery) selections(names []string) []ast.Selection {
	var out []ast.Selection
	for _, name := range names {
		for _, sel := range dq.Selections[name] {
			out = append(out, sel)
		}
	}
	return out
}

// subSelections returns the sub-selections of every client selection of name.
func (dq *DeferredQuery) subSelections(name string) []ast.Selection {
	var out []ast.Selection
	for _, sel := range dq.Selections[name] {
		out = append(out, sel.SelectionSet...)
	}
	return out
}

// OrderedMap is a map remembering insertion order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

// Set stores v under key unless key is already present. It reports whether v was stored.
func (m *OrderedMap[V]) Set(key string, v V) bool {
	if _, ok := m.values[key]; ok {
		return false
	}
	m.keys = append(m.keys, key)
	m.values[key] = v
	return true
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap[V]) Keys() []string {
	return m.keys
}

func (m *OrderedMap[V]) Values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Collected is the output of one collection.
type Collected struct {
	Queries   *OrderedMap[*QueryNode]
	Deferreds *OrderedMap[*DeferredQuery]
}

func newCollected() *Collected {
	return &Collected{
		Queries:   NewOrderedMap[*QueryNode](),
		Deferreds: NewOrderedMap[*DeferredQuery](),
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
