package executor

import (
	"strings"

	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/federation/planner"
)

// Merge folds the result of an executed node into shared.
//
// A root node lands at its own path unless something is already there. A node
// produced by deferred resolution is joined to the rows at Join.RowsPath: its rows are
// indexed by ChildKey, and each parent row receives the row matching its ParentKey
// under Join.Suffix. Existing fields are never overwritten.
func Merge(shared map[string]any, node *planner.QueryNode) {
	if node.Result == nil {
		return
	}

	join := node.Join
	if join == nil {
		if _, ok := shared[node.Path]; !ok {
			shared[node.Path] = node.Result
		}
		return
	}

	parents := RowsAt(shared, join.RowsPath)
	if len(parents) == 0 {
		setMissing(shared, splitPath(join.RowsPath), node.Result)
		return
	}

	index := indexRows(toRows(node.Result), join.ChildKey)

	for _, parent := range parents {
		value, ok := graph.ValueAt(parent, join.ParentKey)
		if !ok {
			value = nil
		}

		if join.Many {
			var matches []any
			for _, key := range keyValues(value) {
				for _, row := range index[key] {
					matches = append(matches, row)
				}
			}
			if matches == nil {
				matches = []any{}
			}
			dst, last := container(parent, join.Suffix)
			if _, ok := dst[last]; !ok {
				dst[last] = matches
			}
			continue
		}

		if list, ok := value.([]any); ok && len(join.Suffix) > 0 {
			// a list of keys joins a list of rows in key order
			var matches []any
			for _, item := range list {
				if rows := index[graph.KeyString(item)]; len(rows) > 0 {
					matches = append(matches, rows[0])
				}
			}
			dst, last := container(parent, join.Suffix)
			if _, ok := dst[last]; !ok && matches != nil {
				dst[last] = matches
			}
			continue
		}

		if value == nil {
			continue
		}
		rows := index[graph.KeyString(value)]
		if len(rows) == 0 {
			continue
		}
		match := rows[0]

		if len(join.Suffix) == 0 {
			copyMissing(parent, match)
			continue
		}

		dst, last := container(parent, join.Suffix)
		switch target := dst[last].(type) {
		case map[string]any:
			copyMissing(target, match)
		case nil:
			dst[last] = match
		}
	}
}

// RowsAt returns the rows found at path, descending element-wise through lists.
// Nested lists are flattened, null rows are dropped and missing levels yield nothing.
func RowsAt(shared map[string]any, path string) []map[string]any {
	var out []map[string]any
	collectRows(shared, splitPath(path), &out)
	return out
}

func collectRows(value any, path []string, out *[]map[string]any) {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			collectRows(item, path, out)
		}
	case map[string]any:
		if len(path) == 0 {
			*out = append(*out, v)
			return
		}
		next, ok := v[path[0]]
		if !ok {
			return
		}
		collectRows(next, path[1:], out)
	}
}

func toRows(result any) []map[string]any {
	var out []map[string]any
	collectRows(result, nil, &out)
	return out
}

// indexRows indexes rows by the value at key. A list value indexes the row under
// every element.
func indexRows(rows []map[string]any, key string) map[string][]map[string]any {
	index := make(map[string][]map[string]any, len(rows))
	for _, row := range rows {
		value, ok := graph.ValueAt(row, key)
		if !ok {
			continue
		}
		for _, k := range keyValues(value) {
			index[k] = append(index[k], row)
		}
	}
	return index
}

func keyValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			keys = append(keys, graph.KeyString(item))
		}
		return keys
	default:
		return []string{graph.KeyString(v)}
	}
}

// container walks row along suffix, creating missing objects, and returns the object
// holding the last segment.
func container(row map[string]any, suffix []string) (map[string]any, string) {
	cur := row
	for _, seg := range suffix[:len(suffix)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	return cur, suffix[len(suffix)-1]
}

// copyMissing copies the fields of src absent from dst. Objects present on both sides
// are merged the same way.
func copyMissing(dst, src map[string]any) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok || existing == nil {
			dst[k] = v
			continue
		}
		dstObj, ok := existing.(map[string]any)
		if !ok {
			continue
		}
		if srcObj, ok := v.(map[string]any); ok {
			copyMissing(dstObj, srcObj)
		}
	}
}

func setMissing(shared map[string]any, path []string, value any) {
	if len(path) == 0 {
		return
	}
	cur := shared
	for _, seg := range path[:len(path)-1] {
		existing, ok := cur[seg]
		if !ok {
			next := make(map[string]any)
			cur[seg] = next
			cur = next
			continue
		}
		next, ok := existing.(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	last := path[len(path)-1]
	if _, ok := cur[last]; !ok {
		cur[last] = value
	}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
