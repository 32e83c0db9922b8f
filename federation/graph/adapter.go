package graph

import (
	"fmt"
	"strings"
)

// ArgsAdapter converts a batch of parent rows into the arguments of a batched query.
type ArgsAdapter interface {
	AdaptArgs(rows []map[string]any) (map[string]any, error)
}

// ArgsAdapterFunc adapts a plain function to ArgsAdapter.
type ArgsAdapterFunc func(rows []map[string]any) (map[string]any, error)

func (f ArgsAdapterFunc) AdaptArgs(rows []map[string]any) (map[string]any, error) {
	return f(rows)
}

// RowsFilter transforms parent rows before they reach an ArgsAdapter.
type RowsFilter interface {
	FilterRows(rows []map[string]any) ([]map[string]any, error)
}

// RowsFilterFunc adapts a plain function to RowsFilter.
type RowsFilterFunc func(rows []map[string]any) ([]map[string]any, error)

func (f RowsFilterFunc) FilterRows(rows []map[string]any) ([]map[string]any, error) {
	return f(rows)
}

// PKeyArgsAdapter is the default adapter: {pkey + "s": [row[pkey], ...]}.
// Values are deduplicated keeping the first-seen order.
type PKeyArgsAdapter struct {
	PKey string
}

func (a PKeyArgsAdapter) AdaptArgs(rows []map[string]any) (map[string]any, error) {
	return map[string]any{
		a.PKey + "s": UniqueValues(rows, a.PKey),
	}, nil
}

// ValueAt reads a dotted path ("author.id") from row.
func ValueAt(row map[string]any, path string) (any, bool) {
	var cur any = row
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// KeyString normalizes a key value so that "1", 1 and 1.0 join together.
func KeyString(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case float64:
		if k == float64(int64(k)) {
			return fmt.Sprintf("%d", int64(k))
		}
	}
	return fmt.Sprint(v)
}

// UniqueValues collects the non-null values at path, deduplicated in first-seen order.
// List values are flattened.
func UniqueValues(rows []map[string]any, path string) []any {
	seen := make(map[string]struct{})
	values := make([]any, 0, len(rows))
	add := func(v any) {
		if v == nil {
			return
		}
		k := KeyString(v)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		values = append(values, v)
	}

	for _, row := range rows {
		v, ok := ValueAt(row, path)
		if !ok {
			continue
		}
		if list, ok := v.([]any); ok {
			for _, item := range list {
				add(item)
			}
			continue
		}
		add(v)
	}
	return values
}

// KeyProjection maps every row to {To: row[From]}, letting a key-named adapter read
// a foreign column.
type KeyProjection struct {
	From string
	To   string
}

func (p KeyProjection) FilterRows(rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		v, ok := ValueAt(row, p.From)
		if !ok || v == nil {
			continue
		}
		out = append(out, map[string]any{p.To: v})
	}
	return out, nil
}
