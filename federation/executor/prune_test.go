package executor_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/federation/executor"
	"github.com/n9te9/go-graphql-composer/federation/planner"
	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

func selectionOf(t *testing.T, query string) ([]ast.Selection, map[string]*ast.FragmentDefinition) {
	t.Helper()

	p := parser.New(lexer.New(query))
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("failed to parse query: %v", p.Errors())
	}
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			field := op.SelectionSet[0].(*ast.Field)
			return field.SelectionSet, planner.CollectFragments(doc)
		}
	}
	t.Fatal("no operation in query")
	return nil, nil
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name  string
		query string
		value any
		want  any
	}{
		{
			name:  "join keys are dropped",
			query: `{ songs { title } }`,
			value: []any{
				map[string]any{"title": "a", "singerId": "103", "id": "1"},
			},
			want: []any{map[string]any{"title": "a"}},
		},
		{
			name:  "aliases",
			query: `{ book { name: title t2: title } }`,
			value: map[string]any{"title": "Dune", "id": "1"},
			want:  map[string]any{"name": "Dune", "t2": "Dune"},
		},
		{
			name:  "missing fields become null",
			query: `{ books { title rate author { name } } }`,
			value: []any{
				map[string]any{"title": "a", "author": nil},
			},
			want: []any{map[string]any{"title": "a", "rate": nil, "author": nil}},
		},
		{
			name:  "fragments and type conditions",
			query: `query { media { ...M ... on Movie { director } ... on Song { singer } } } fragment M on Movie { title }`,
			value: []any{
				map[string]any{"__typename": "Movie", "title": "Interstellar", "director": "Nolan", "singer": "x"},
				map[string]any{"title": "untyped", "director": "d", "singer": "s"},
			},
			want: []any{
				map[string]any{"title": "Interstellar", "director": "Nolan"},
				map[string]any{"title": "untyped", "director": "d", "singer": "s"},
			},
		},
		{
			name:  "nested lists",
			query: `{ artists { songs { title } } }`,
			value: []any{
				map[string]any{"id": "103", "songs": []any{
					map[string]any{"title": "a", "singerId": "103"},
				}},
			},
			want: []any{
				map[string]any{"songs": []any{map[string]any{"title": "a"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selections, fragments := selectionOf(t, tt.query)
			got := executor.Prune(tt.value, selections, fragments)
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("Prune mismatch (-got +want):\n%s", diff)
			}
		})
	}
}
