// Package catalogtest builds introspection schemas by hand for catalog and planner
// tests.
package catalogtest

import (
	"strings"

	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/introspection"
)

// Ref parses an SDL type reference such as "[Book!]!".
func Ref(sdl string) introspection.TypeRef {
	if strings.HasSuffix(sdl, "!") {
		inner := Ref(strings.TrimSuffix(sdl, "!"))
		return introspection.TypeRef{Kind: introspection.KindNonNull, OfType: &inner}
	}
	if strings.HasPrefix(sdl, "[") && strings.HasSuffix(sdl, "]") {
		return introspection.ListOf(Ref(sdl[1 : len(sdl)-1]))
	}
	return introspection.Named(kindOf(sdl), sdl)
}

func kindOf(name string) string {
	switch name {
	case "ID", "String", "Int", "Float", "Boolean":
		return introspection.KindScalar
	}
	return introspection.KindObject
}

// Field declares "name: Type" with optional "arg: Type" pairs.
func Field(name, typ string, args ...string) introspection.Field {
	f := introspection.Field{Name: name, Type: Ref(typ)}
	for i := 0; i+1 < len(args); i += 2 {
		f.Args = append(f.Args, introspection.InputValue{Name: args[i], Type: Ref(args[i+1])})
	}
	return f
}

// Object declares an object type.
func Object(name string, fields ...introspection.Field) introspection.FullType {
	return introspection.FullType{Kind: introspection.KindObject, Name: name, Fields: fields}
}

// Enum declares an enum type.
func Enum(name string, values ...string) introspection.FullType {
	t := introspection.FullType{Kind: introspection.KindEnum, Name: name}
	for _, v := range values {
		t.EnumValues = append(t.EnumValues, introspection.EnumValue{Name: v})
	}
	return t
}

// Input declares an input object type from "name: Type" pairs.
func Input(name string, fields ...string) introspection.FullType {
	t := introspection.FullType{Kind: introspection.KindInputObject, Name: name}
	for i := 0; i+1 < len(fields); i += 2 {
		t.InputFields = append(t.InputFields, introspection.InputValue{Name: fields[i], Type: Ref(fields[i+1])})
	}
	return t
}

// Schema builds a schema answering the given types plus the built-in scalars. The
// kinds of named references are fixed up from the declared types.
func Schema(types ...introspection.FullType) *introspection.Schema {
	for _, name := range []string{"ID", "String", "Int", "Float", "Boolean"} {
		types = append(types, introspection.FullType{Kind: introspection.KindScalar, Name: name})
	}

	kinds := make(map[string]string, len(types))
	for _, t := range types {
		kinds[t.Name] = t.Kind
	}
	fix := func(ref *introspection.TypeRef) {
		for cur := ref; cur != nil; cur = cur.OfType {
			if cur.Name != nil {
				if kind, ok := kinds[*cur.Name]; ok {
					cur.Kind = kind
				}
			}
		}
	}
	for i := range types {
		for j := range types[i].Fields {
			fix(&types[i].Fields[j].Type)
			for k := range types[i].Fields[j].Args {
				fix(&types[i].Fields[j].Args[k].Type)
			}
		}
		for j := range types[i].InputFields {
			fix(&types[i].InputFields[j].Type)
		}
	}

	s := &introspection.Schema{Types: types}
	for _, t := range types {
		switch t.Name {
		case "Query":
			s.QueryType = &introspection.TypeName{Name: t.Name}
		case "Mutation":
			s.MutationType = &introspection.TypeName{Name: t.Name}
		}
	}
	return s
}

// SubGraph pairs a subgraph with its introspection.
type SubGraph struct {
	SubGraph *graph.SubGraph
	Schema   *introspection.Schema
}

// SuperGraph merges subgraphs in order into a new catalog.
func SuperGraph(subs ...SubGraph) *graph.SuperGraph {
	sg := graph.NewSuperGraph("Query", "Mutation")
	for _, s := range subs {
		sg.MergeIntrospection(s.SubGraph, s.Schema)
	}
	sg.AddLinks()
	sg.BuildMergedSchema()
	return sg
}
