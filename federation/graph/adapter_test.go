package graph_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/federation/graph"
)

func TestPKeyArgsAdapter_AdaptArgs(t *testing.T) {
	rows := []map[string]any{
		{"id": "1"},
		{"id": float64(2)},
		{"id": "2"},
		{"id": nil},
		{"other": "x"},
		{"id": []any{"3", "1"}},
	}

	got, err := graph.PKeyArgsAdapter{PKey: "id"}.AdaptArgs(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"ids": []any{"1", float64(2), "3"}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("AdaptArgs mismatch (-got +want):\n%s", diff)
	}
}

func TestKeyProjection_FilterRows(t *testing.T) {
	rows := []map[string]any{
		{"id": "1", "author": map[string]any{"id": "10"}},
		{"id": "2", "author": nil},
		{"id": "3"},
	}

	got, err := graph.KeyProjection{From: "author.id", To: "id"}.FilterRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, []map[string]any{{"id": "10"}}); diff != "" {
		t.Errorf("FilterRows mismatch (-got +want):\n%s", diff)
	}
}

func TestValueAt(t *testing.T) {
	row := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}, "x": "y"}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{path: "x", want: "y", wantOK: true},
		{path: "a.b.c", want: 1, wantOK: true},
		{path: "a.z", wantOK: false},
		{path: "x.y", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := graph.ValueAt(row, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("ValueAt mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestServer_URLs(t *testing.T) {
	s := graph.Server{Host: "http://localhost:4001/"}
	if got := s.ComposeURL(); got != "http://localhost:4001"+graph.DefaultComposeEndpoint {
		t.Errorf("ComposeURL() = %q", got)
	}
	s.GraphQLEndpoint = "query"
	if got := s.GraphQLURL(); got != "http://localhost:4001/query" {
		t.Errorf("GraphQLURL() = %q", got)
	}
}
