package planner

import (
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// ArgumentValues resolves the arguments of a field node against the request variables.
// Unbound variables are left out.
func ArgumentValues(args []*ast.Argument, variables map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}

	out := make(map[string]any, len(args))
	for _, arg := range args {
		if v, ok := valueOf(arg.Value, variables); ok {
			out[arg.Name.String()] = v
		}
	}
	return out
}

func valueOf(val ast.Value, variables map[string]any) (any, bool) {
	switch v := val.(type) {
	case *ast.Variable:
		value, ok := variables[v.Name]
		return value, ok
	case *ast.StringValue:
		return v.Value, true
	case *ast.IntValue:
		return v.Value, true
	case *ast.FloatValue:
		return v.Value, true
	case *ast.BooleanValue:
		return v.Value, true
	case *ast.EnumValue:
		return graph.EnumValue(v.Value), true
	case *ast.ListValue:
		list := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			if value, ok := valueOf(item, variables); ok {
				list = append(list, value)
			}
		}
		return list, true
	case *ast.ObjectValue:
		obj := make(map[string]any, len(v.Fields))
		for _, field := range v.Fields {
			if value, ok := valueOf(field.Value, variables); ok {
				obj[field.Name.String()] = value
			}
		}
		return obj, true
	}
	return nil, true
}
