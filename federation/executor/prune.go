package executor

import (
	"github.com/n9te9/graphql-parser/ast"
)

// Prune shapes value after the client selection: fields outside the selection are
// dropped, aliases are applied and selected fields missing from value become null.
func Prune(value any, selections []ast.Selection, fragments map[string]*ast.FragmentDefinition) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Prune(item, selections, fragments)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Prune(item, selections, fragments)
		}
		return out
	case map[string]any:
		fields := &responseFields{byKey: make(map[string]*responseField)}
		fields.collect(v, selections, fragments)

		out := make(map[string]any, len(fields.order))
		for _, key := range fields.order {
			f := fields.byKey[key]
			raw, ok := v[f.name]
			if !ok {
				out[key] = nil
				continue
			}
			if len(f.selections) == 0 {
				out[key] = raw
				continue
			}
			out[key] = Prune(raw, f.selections, fragments)
		}
		return out
	default:
		return v
	}
}

type responseField struct {
	name       string
	selections []ast.Selection
}

// responseFields groups the selected fields by response key, splicing fragments.
type responseFields struct {
	order []string
	byKey map[string]*responseField
}

func (r *responseFields) collect(obj map[string]any, selections []ast.Selection, fragments map[string]*ast.FragmentDefinition) {
	for _, selection := range selections {
		switch sel := selection.(type) {
		case *ast.Field:
			name := sel.Name.String()
			key := name
			if sel.Alias != nil && sel.Alias.String() != "" {
				key = sel.Alias.String()
			}
			f, ok := r.byKey[key]
			if !ok {
				f = &responseField{name: name}
				r.byKey[key] = f
				r.order = append(r.order, key)
			}
			f.selections = append(f.selections, sel.SelectionSet...)

		case *ast.InlineFragment:
			if sel.TypeCondition != nil && sel.TypeCondition.Name != nil && !typeMatches(obj, sel.TypeCondition.Name.String()) {
				continue
			}
			r.collect(obj, sel.SelectionSet, fragments)

		case *ast.FragmentSpread:
			fragDef, ok := fragments[sel.Name.String()]
			if !ok {
				continue
			}
			if fragDef.TypeCondition != nil && fragDef.TypeCondition.Name != nil && !typeMatches(obj, fragDef.TypeCondition.Name.String()) {
				continue
			}
			r.collect(obj, fragDef.SelectionSet, fragments)
		}
	}
}

// typeMatches reports whether obj may be of typeName. Objects without __typename
// match every condition.
func typeMatches(obj map[string]any, typeName string) bool {
	name, ok := obj["__typename"].(string)
	if !ok {
		return true
	}
	return name == typeName
}
