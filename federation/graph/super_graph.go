package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/n9te9/go-graphql-composer/federation/introspection"
)

// ComposerSubGraph is the pseudo-subgraph owning the link fields published from
// entity configuration (fkeys[].as, many[].as).
const ComposerSubGraph = "__composer__"

var (
	ErrDuplicateType  = errors.New("type already registered")
	ErrDuplicateField = errors.New("field already registered")
)

// Type is a GraphQL type as seen by one subgraph.
type Type struct {
	Name     string                  // Type name
	Kind     string                  // Introspection kind (OBJECT, ENUM, ...)
	SubGraph string                  // Owning subgraph name
	Src      *introspection.FullType // Raw introspection definition
	Entity   *Entity                 // Entity configured for (Name, SubGraph), if any
	Fields   map[string]*Field       // Fields by name

	fieldNames []string
}

// FieldNames returns the field names in registration order.
func (t *Type) FieldNames() []string {
	return t.fieldNames
}

// Field is a field of a Type on one subgraph. The parent type is referenced by name.
type Field struct {
	Name       string               // Field name
	ParentType string               // Name of the declaring type
	SubGraph   string               // Owning subgraph name
	TypeName   string               // Target type with list/non-null wrappers stripped
	Src        *introspection.Field // Raw introspection definition
	Resolver   *Resolver            // Set for root fields
	Link       *Link                // Set for composer link fields
}

// ID returns the composite "Type.field" key.
func (f *Field) ID() string {
	return FieldID(f.ParentType, f.Name)
}

// FieldID builds the composite key of a field.
func FieldID(typeName, fieldName string) string {
	return fmt.Sprintf("%s.%s", typeName, fieldName)
}

// SuperGraph is the schema catalog: every subgraph's types and fields, keyed by
// (type, subgraph) and ("Type.field", subgraph). It is built once at compose time and
// read-only afterwards.
type SuperGraph struct {
	QueryTypeName    string
	MutationTypeName string
	SubGraphs        []*SubGraph // Merged subgraphs in merge order

	subGraphs     map[string]*SubGraph
	types         map[string]map[string]*Type  // type name -> subgraph -> Type
	typeOrder     []string                     // type names in first-seen order
	typeSubGraphs map[string][]string          // type name -> subgraphs in insertion order
	fields        map[string]map[string]*Field // "Type.field" -> subgraph -> Field
	fieldOwners   map[string][]string          // "Type.field" -> subgraphs in insertion order
	merged        *MergedSchema
}

// NewSuperGraph creates an empty catalog for the given root type names.
func NewSuperGraph(queryTypeName, mutationTypeName string) *SuperGraph {
	return &SuperGraph{
		QueryTypeName:    queryTypeName,
		MutationTypeName: mutationTypeName,
		subGraphs:        make(map[string]*SubGraph),
		types:            make(map[string]map[string]*Type),
		typeSubGraphs:    make(map[string][]string),
		fields:           make(map[string]map[string]*Field),
		fieldOwners:      make(map[string][]string),
	}
}

// IsRootType reports whether typeName is the configured Query or Mutation type.
func (sg *SuperGraph) IsRootType(typeName string) bool {
	return typeName == sg.QueryTypeName || typeName == sg.MutationTypeName
}

// MergeIntrospection registers every type and field of a subgraph's introspection.
// Duplicate registrations keep the first one; they are returned as warnings and do not
// stop the merge.
func (sg *SuperGraph) MergeIntrospection(sub *SubGraph, schema *introspection.Schema) []error {
	if _, ok := sg.subGraphs[sub.Name]; !ok {
		sg.subGraphs[sub.Name] = sub
		sg.SubGraphs = append(sg.SubGraphs, sub)
	}

	var warnings []error
	for i := range schema.Types {
		src := &schema.Types[i]
		if introspection.IsReserved(src.Name) {
			continue
		}

		t := &Type{
			Name:     src.Name,
			Kind:     src.Kind,
			SubGraph: sub.Name,
			Src:      src,
			Fields:   make(map[string]*Field),
		}
		t.Entity, _ = sub.GetEntity(src.Name)
		if err := sg.addType(t); err != nil {
			warnings = append(warnings, err)
			continue
		}

		isRoot := sg.IsRootType(src.Name)
		for j := range src.Fields {
			f := &src.Fields[j]
			field := &Field{
				Name:       f.Name,
				ParentType: src.Name,
				SubGraph:   sub.Name,
				TypeName:   f.Type.NamedType(),
				Src:        f,
			}
			// entity fields get their resolvers during deferred resolution
			if isRoot {
				field.Resolver = &Resolver{Name: f.Name}
			}
			if err := sg.addField(t, field); err != nil {
				warnings = append(warnings, err)
			}
		}
	}

	return warnings
}

func (sg *SuperGraph) addType(t *Type) error {
	bySubGraph, ok := sg.types[t.Name]
	if !ok {
		bySubGraph = make(map[string]*Type)
		sg.types[t.Name] = bySubGraph
		sg.typeOrder = append(sg.typeOrder, t.Name)
	}
	if _, exists := bySubGraph[t.SubGraph]; exists {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateType, t.Name, t.SubGraph)
	}
	bySubGraph[t.SubGraph] = t
	sg.typeSubGraphs[t.Name] = append(sg.typeSubGraphs[t.Name], t.SubGraph)
	return nil
}

func (sg *SuperGraph) addField(t *Type, f *Field) error {
	if _, exists := t.Fields[f.Name]; exists {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateField, f.ID(), f.SubGraph)
	}
	t.Fields[f.Name] = f
	t.fieldNames = append(t.fieldNames, f.Name)

	id := f.ID()
	bySubGraph, ok := sg.fields[id]
	if !ok {
		bySubGraph = make(map[string]*Field)
		sg.fields[id] = bySubGraph
	}
	bySubGraph[f.SubGraph] = f
	sg.fieldOwners[id] = append(sg.fieldOwners[id], f.SubGraph)
	return nil
}

// AddLinks publishes the link fields declared by entity configuration under the
// ComposerSubGraph pseudo-subgraph.
func (sg *SuperGraph) AddLinks() []error {
	var warnings []error
	for _, sub := range sg.SubGraphs {
		typeNames := make([]string, 0, len(sub.Entities))
		for name := range sub.Entities {
			typeNames = append(typeNames, name)
		}
		sort.Strings(typeNames)

		for _, typeName := range typeNames {
			if sg.Type(typeName, sub.Name) == nil {
				continue
			}
			entity := sub.Entities[typeName]
			for i := range entity.FKeys {
				fk := &entity.FKeys[i]
				if fk.As == "" {
					continue
				}
				ref := introspection.Named(sg.kindOr(fk.Type, introspection.KindObject), fk.Type)
				if err := sg.addLink(typeName, fk.As, ref, &Link{SubGraph: sub.Name, ForeignKey: fk}); err != nil {
					warnings = append(warnings, err)
				}
			}
			for i := range entity.Many {
				m := &entity.Many[i]
				if m.As == "" {
					continue
				}
				ref := introspection.ListOf(introspection.Named(sg.kindOr(m.Type, introspection.KindObject), m.Type))
				if err := sg.addLink(typeName, m.As, ref, &Link{SubGraph: sub.Name, Many: m}); err != nil {
					warnings = append(warnings, err)
				}
			}
		}
	}
	return warnings
}

func (sg *SuperGraph) addLink(typeName, fieldName string, ref introspection.TypeRef, link *Link) error {
	id := FieldID(typeName, fieldName)
	if owners := sg.fieldOwners[id]; len(owners) > 0 {
		return fmt.Errorf("%w: %s is owned by %s", ErrDuplicateField, id, owners[0])
	}

	t := sg.Type(typeName, ComposerSubGraph)
	if t == nil {
		t = &Type{
			Name:     typeName,
			Kind:     introspection.KindObject,
			SubGraph: ComposerSubGraph,
			Src:      &introspection.FullType{Kind: introspection.KindObject, Name: typeName},
			Fields:   make(map[string]*Field),
		}
		if err := sg.addType(t); err != nil {
			return err
		}
	}

	return sg.addField(t, &Field{
		Name:       fieldName,
		ParentType: typeName,
		SubGraph:   ComposerSubGraph,
		TypeName:   ref.NamedType(),
		Src:        &introspection.Field{Name: fieldName, Type: ref},
		Link:       link,
	})
}

// SubGraph returns a merged subgraph by name.
func (sg *SuperGraph) SubGraph(name string) *SubGraph {
	return sg.subGraphs[name]
}

// Type returns the Type registered for (typeName, subGraph).
func (sg *SuperGraph) Type(typeName, subGraph string) *Type {
	return sg.types[typeName][subGraph]
}

// Field returns the Field registered for (fieldID, subGraph).
func (sg *SuperGraph) Field(fieldID, subGraph string) *Field {
	return sg.fields[fieldID][subGraph]
}

// FieldOwners returns the subgraphs declaring fieldID in insertion order.
func (sg *SuperGraph) FieldOwners(fieldID string) []string {
	return sg.fieldOwners[fieldID]
}

// TypesForSubGraph projects the catalog down to one subgraph's types.
func (sg *SuperGraph) TypesForSubGraph(name string) map[string]*Type {
	out := make(map[string]*Type)
	for typeName, bySubGraph := range sg.types {
		if t, ok := bySubGraph[name]; ok {
			out[typeName] = t
		}
	}
	return out
}

// FieldsForSubGraph projects the catalog down to one subgraph's fields keyed by "Type.field".
func (sg *SuperGraph) FieldsForSubGraph(name string) map[string]*Field {
	out := make(map[string]*Field)
	for id, bySubGraph := range sg.fields {
		if f, ok := bySubGraph[name]; ok {
			out[id] = f
		}
	}
	return out
}

// SubGraphView is the part of the catalog declared by one subgraph.
type SubGraphView struct {
	Name   string
	types  map[string]*Type
	fields map[string]*Field
}

// View projects the catalog down to subGraph.
func (sg *SuperGraph) View(subGraph string) *SubGraphView {
	return &SubGraphView{
		Name:   subGraph,
		types:  sg.TypesForSubGraph(subGraph),
		fields: sg.FieldsForSubGraph(subGraph),
	}
}

// Type returns the type declared by the subgraph, or nil.
func (v *SubGraphView) Type(name string) *Type {
	return v.types[name]
}

// Field returns the field declared by the subgraph, or nil.
func (v *SubGraphView) Field(id string) *Field {
	return v.fields[id]
}

// GetEntity returns the entity configured for (typeName, subGraph), or nil.
func (sg *SuperGraph) GetEntity(typeName, subGraph string) *Entity {
	sub, ok := sg.subGraphs[subGraph]
	if !ok {
		return nil
	}
	e, _ := sub.GetEntity(typeName)
	return e
}

// TypeKind returns the kind of the first registration of typeName.
func (sg *SuperGraph) TypeKind(typeName string) string {
	subs := sg.typeSubGraphs[typeName]
	if len(subs) == 0 {
		return ""
	}
	return sg.types[typeName][subs[0]].Kind
}

func (sg *SuperGraph) kindOr(typeName, fallback string) string {
	if kind := sg.TypeKind(typeName); kind != "" {
		return kind
	}
	return fallback
}

// inputFields returns the input fields of an input object type, looking at the given
// subgraph first.
func (sg *SuperGraph) inputFields(typeName, subGraph string) []introspection.InputValue {
	if t := sg.Type(typeName, subGraph); t != nil {
		return t.Src.InputFields
	}
	for _, name := range sg.typeSubGraphs[typeName] {
		if fields := sg.types[typeName][name].Src.InputFields; len(fields) > 0 {
			return fields
		}
	}
	return nil
}
