package graph

import "github.com/n9te9/go-graphql-composer/federation/introspection"

// EnumValue marks an argument value that must be rendered as a bare enum name.
type EnumValue string

// CoerceArguments returns a copy of args where values bound to enum-typed arguments
// (at any depth of input objects and lists) are wrapped in EnumValue.
func (sg *SuperGraph) CoerceArguments(subGraph, fieldID string, args map[string]any) map[string]any {
	if len(args) == 0 {
		return args
	}
	field := sg.Field(fieldID, subGraph)
	if field == nil || field.Src == nil {
		return args
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, arg := range field.Src.Args {
		if v, ok := out[arg.Name]; ok {
			out[arg.Name] = sg.coerceValue(subGraph, arg.Type, v)
		}
	}
	return out
}

func (sg *SuperGraph) coerceValue(subGraph string, ref introspection.TypeRef, v any) any {
	if v == nil {
		return nil
	}

	switch ref.Kind {
	case introspection.KindNonNull:
		if ref.OfType == nil {
			return v
		}
		return sg.coerceValue(subGraph, *ref.OfType, v)
	case introspection.KindList:
		if ref.OfType == nil {
			return v
		}
		list, ok := v.([]any)
		if !ok {
			return sg.coerceValue(subGraph, *ref.OfType, v)
		}
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = sg.coerceValue(subGraph, *ref.OfType, item)
		}
		return out
	}

	name := ref.NamedType()
	switch sg.TypeKind(name) {
	case introspection.KindEnum:
		if s, ok := v.(string); ok {
			return EnumValue(s)
		}
	case introspection.KindInputObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := make(map[string]any, len(obj))
		for k, fv := range obj {
			out[k] = fv
		}
		for _, in := range sg.inputFields(name, subGraph) {
			if fv, ok := out[in.Name]; ok {
				out[in.Name] = sg.coerceValue(subGraph, in.Type, fv)
			}
		}
		return out
	}
	return v
}
