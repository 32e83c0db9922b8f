package composer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/composer"
)

func TestTemplateArgsAdapter_AdaptArgs(t *testing.T) {
	rows := []map[string]any{
		{"id": "1", "author": map[string]any{"id": "10"}, "tags": []any{"a", "b"}},
		{"id": "2", "author": map[string]any{"id": "10"}, "tags": []any{"b", "c"}},
		{"id": "3", "author": nil},
	}

	tests := []struct {
		name    string
		adapter composer.TemplateArgsAdapter
		want    map[string]any
	}{
		{
			name:    "flat list",
			adapter: composer.TemplateArgsAdapter{{Arg: "ids", Key: "id"}},
			want:    map[string]any{"ids": []any{"1", "2", "3"}},
		},
		{
			name:    "nested argument and key",
			adapter: composer.TemplateArgsAdapter{{Arg: "where.ids.in", Key: "author.id"}},
			want: map[string]any{
				"where": map[string]any{"ids": map[string]any{"in": []any{"10"}}},
			},
		},
		{
			name:    "single value",
			adapter: composer.TemplateArgsAdapter{{Arg: "authorId", Key: "author.id", Single: true}},
			want:    map[string]any{"authorId": "10"},
		},
		{
			name:    "list values are flattened",
			adapter: composer.TemplateArgsAdapter{{Arg: "tags", Key: "tags"}},
			want:    map[string]any{"tags": []any{"a", "b", "c"}},
		},
		{
			name: "several templates",
			adapter: composer.TemplateArgsAdapter{
				{Arg: "ids", Key: "id"},
				{Arg: "authorIds", Key: "author.id"},
			},
			want: map[string]any{
				"ids":       []any{"1", "2", "3"},
				"authorIds": []any{"10"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.adapter.AdaptArgs(rows)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("args mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestFieldsRowsFilter_FilterRows(t *testing.T) {
	rows := []map[string]any{
		{"id": "1", "singerId": "103"},
		{"id": "2", "singerId": nil},
		{"id": "3", "singer": map[string]any{"id": "102"}},
	}

	tests := []struct {
		name   string
		filter composer.FieldsRowsFilter
		want   []map[string]any
	}{
		{
			name:   "rename a column",
			filter: composer.FieldsRowsFilter{"id": "singerId"},
			want:   []map[string]any{{"id": "103"}},
		},
		{
			name:   "nested path",
			filter: composer.FieldsRowsFilter{"id": "singer.id"},
			want:   []map[string]any{{"id": "102"}},
		},
		{
			name:   "no match",
			filter: composer.FieldsRowsFilter{"id": "unknown"},
			want:   []map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.FilterRows(rows)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("rows mismatch (-got +want):\n%s", diff)
			}
		})
	}
}
