package graph

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/n9te9/go-graphql-composer/federation/introspection"
	gqlast "github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

var builtinScalars = map[string]struct{}{
	"String":  {},
	"Int":     {},
	"Float":   {},
	"Boolean": {},
	"ID":      {},
}

// MergedSchema is the externally advertised schema: one MergedType per type name.
type MergedSchema struct {
	QueryType    string
	MutationType string
	Types        []*MergedType

	index map[string]*MergedType
}

// MergedType is the union of every subgraph's view of one type.
type MergedType struct {
	Name          string
	Kind          string
	Description   string
	Fields        []introspection.Field
	InputFields   []introspection.InputValue
	EnumValues    []introspection.EnumValue
	Interfaces    []string
	PossibleTypes []string
}

// Type returns the merged type by name.
func (m *MergedSchema) Type(name string) *MergedType {
	return m.index[name]
}

// BuildMergedSchema concatenates the field lists of every subgraph per type name.
// Same-named types are assumed field-disjoint; a repeated field name keeps its first
// definition.
func (sg *SuperGraph) BuildMergedSchema() *MergedSchema {
	m := &MergedSchema{index: make(map[string]*MergedType)}

	for _, name := range sg.typeOrder {
		for _, subName := range sg.typeSubGraphs[name] {
			t := sg.types[name][subName]
			mt, ok := m.index[name]
			if !ok {
				mt = &MergedType{Name: name, Kind: t.Kind, Description: t.Src.Description}
				m.index[name] = mt
				m.Types = append(m.Types, mt)
			}

			for _, fieldName := range t.fieldNames {
				mt.addField(*t.Fields[fieldName].Src)
			}
			for _, in := range t.Src.InputFields {
				mt.addInputField(in)
			}
			for _, ev := range t.Src.EnumValues {
				mt.addEnumValue(ev)
			}
			for _, ref := range t.Src.Interfaces {
				mt.Interfaces = appendUnique(mt.Interfaces, ref.NamedType())
			}
			for _, ref := range t.Src.PossibleTypes {
				mt.PossibleTypes = appendUnique(mt.PossibleTypes, ref.NamedType())
			}
		}
	}

	if _, ok := m.index[sg.QueryTypeName]; ok {
		m.QueryType = sg.QueryTypeName
	}
	if _, ok := m.index[sg.MutationTypeName]; ok {
		m.MutationType = sg.MutationTypeName
	}

	sg.merged = m
	return m
}

// MergedSchema returns the schema produced by the last BuildMergedSchema call.
func (sg *SuperGraph) MergedSchema() *MergedSchema {
	return sg.merged
}

func (mt *MergedType) addField(f introspection.Field) {
	for _, existing := range mt.Fields {
		if existing.Name == f.Name {
			return
		}
	}
	mt.Fields = append(mt.Fields, f)
}

func (mt *MergedType) addInputField(in introspection.InputValue) {
	for _, existing := range mt.InputFields {
		if existing.Name == in.Name {
			return
		}
	}
	mt.InputFields = append(mt.InputFields, in)
}

func (mt *MergedType) addEnumValue(ev introspection.EnumValue) {
	for _, existing := range mt.EnumValues {
		if existing.Name == ev.Name {
			return
		}
	}
	mt.EnumValues = append(mt.EnumValues, ev)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// SDL prints the merged schema.
func (m *MergedSchema) SDL() (string, error) {
	if m.QueryType == "" {
		return "", fmt.Errorf("merged schema has no query type")
	}

	schema := &gqlast.Schema{
		Types: make(map[string]*gqlast.Definition, len(m.Types)),
	}
	for _, t := range m.Types {
		if _, ok := builtinScalars[t.Name]; ok {
			continue
		}
		schema.Types[t.Name] = t.definition()
	}
	schema.Query = schema.Types[m.QueryType]
	if m.MutationType != "" {
		schema.Mutation = schema.Types[m.MutationType]
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchema(schema)
	return buf.String(), nil
}

func (mt *MergedType) definition() *gqlast.Definition {
	def := &gqlast.Definition{
		Kind:        gqlast.DefinitionKind(mt.Kind),
		Name:        mt.Name,
		Description: mt.Description,
		Interfaces:  mt.Interfaces,
		Types:       mt.PossibleTypes,
	}

	for _, f := range mt.Fields {
		fd := &gqlast.FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        toASTType(f.Type),
		}
		for _, arg := range f.Args {
			fd.Arguments = append(fd.Arguments, &gqlast.ArgumentDefinition{
				Name:         arg.Name,
				Description:  arg.Description,
				Type:         toASTType(arg.Type),
				DefaultValue: toASTValue(arg.DefaultValue),
			})
		}
		def.Fields = append(def.Fields, fd)
	}

	for _, in := range mt.InputFields {
		def.Fields = append(def.Fields, &gqlast.FieldDefinition{
			Name:         in.Name,
			Description:  in.Description,
			Type:         toASTType(in.Type),
			DefaultValue: toASTValue(in.DefaultValue),
		})
	}

	for _, ev := range mt.EnumValues {
		def.EnumValues = append(def.EnumValues, &gqlast.EnumValueDefinition{
			Name:        ev.Name,
			Description: ev.Description,
		})
	}

	return def
}

func toASTType(ref introspection.TypeRef) *gqlast.Type {
	switch ref.Kind {
	case introspection.KindNonNull:
		if ref.OfType == nil {
			return nil
		}
		t := toASTType(*ref.OfType)
		if t == nil {
			return nil
		}
		t.NonNull = true
		return t
	case introspection.KindList:
		if ref.OfType == nil {
			return nil
		}
		return &gqlast.Type{Elem: toASTType(*ref.OfType)}
	}
	return &gqlast.Type{NamedType: ref.NamedType()}
}

// toASTValue turns an introspection defaultValue literal back into a value node.
func toASTValue(raw *string) *gqlast.Value {
	if raw == nil {
		return nil
	}
	lit := *raw

	switch {
	case strings.HasPrefix(lit, `"`):
		s, err := strconv.Unquote(lit)
		if err != nil {
			s = strings.Trim(lit, `"`)
		}
		return &gqlast.Value{Kind: gqlast.StringValue, Raw: s}
	case lit == "true" || lit == "false":
		return &gqlast.Value{Kind: gqlast.BooleanValue, Raw: lit}
	case lit == "null":
		return &gqlast.Value{Kind: gqlast.NullValue, Raw: lit}
	}
	if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return &gqlast.Value{Kind: gqlast.IntValue, Raw: lit}
	}
	if _, err := strconv.ParseFloat(lit, 64); err == nil {
		return &gqlast.Value{Kind: gqlast.FloatValue, Raw: lit}
	}
	// enum names, lists and objects are printed verbatim
	return &gqlast.Value{Kind: gqlast.EnumValue, Raw: lit}
}
