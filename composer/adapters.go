package composer

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ArgsTemplate sets one argument from the values read on the parent rows.
type ArgsTemplate struct {
	Arg    string // sjson path of the argument ("ids", "where.id.in")
	Key    string // gjson path read on every row ("id", "author.id")
	Single bool   // Pass the first value instead of the list
}

// TemplateArgsAdapter builds arguments from templates. Values are deduplicated in
// first-seen order; list values are flattened.
type TemplateArgsAdapter []ArgsTemplate

func (t TemplateArgsAdapter) AdaptArgs(rows []map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}

	doc := "{}"
	for _, tpl := range t {
		values := uniqueJSONValues(gjson.GetBytes(raw, "#."+tpl.Key))

		var v any = values
		if tpl.Single {
			v = nil
			if len(values) > 0 {
				v = values[0]
			}
		}
		doc, err = sjson.Set(doc, tpl.Arg, v)
		if err != nil {
			return nil, fmt.Errorf("failed to set argument %s: %w", tpl.Arg, err)
		}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(doc), &args); err != nil {
		return nil, fmt.Errorf("failed to decode arguments: %w", err)
	}
	return args, nil
}

func uniqueJSONValues(result gjson.Result) []any {
	seen := make(map[string]struct{})
	values := make([]any, 0)

	var add func(r gjson.Result)
	add = func(r gjson.Result) {
		if r.IsArray() {
			r.ForEach(func(_, item gjson.Result) bool {
				add(item)
				return true
			})
			return
		}
		if !r.Exists() || r.Type == gjson.Null {
			return
		}
		v := r.Value()
		k := graph.KeyString(v)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		values = append(values, v)
	}

	result.ForEach(func(_, item gjson.Result) bool {
		add(item)
		return true
	})
	return values
}

// FieldsRowsFilter maps every parent row to a new row whose fields are read with
// gjson paths. Rows without any of the fields are dropped.
type FieldsRowsFilter map[string]string

func (f FieldsRowsFilter) FilterRows(rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}

		mapped := make(map[string]any, len(f))
		for name, path := range f {
			r := gjson.GetBytes(raw, path)
			if !r.Exists() || r.Type == gjson.Null {
				continue
			}
			mapped[name] = r.Value()
		}
		if len(mapped) > 0 {
			out = append(out, mapped)
		}
	}
	return out, nil
}
