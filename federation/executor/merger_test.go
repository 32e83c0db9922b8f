package executor_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/federation/executor"
	"github.com/n9te9/go-graphql-composer/federation/planner"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		shared map[string]any
		node   *planner.QueryNode
		want   map[string]any
	}{
		{
			name:   "root node lands at its path",
			shared: map[string]any{},
			node: &planner.QueryNode{
				Path:   "getBook",
				Result: map[string]any{"id": "1", "title": "Dune"},
			},
			want: map[string]any{
				"getBook": map[string]any{"id": "1", "title": "Dune"},
			},
		},
		{
			name:   "root node never overwrites",
			shared: map[string]any{"getBook": map[string]any{"id": "1"}},
			node: &planner.QueryNode{
				Path:   "getBook",
				Result: map[string]any{"id": "2"},
			},
			want: map[string]any{"getBook": map[string]any{"id": "1"}},
		},
		{
			name:   "nil result is ignored",
			shared: map[string]any{"getBook": nil},
			node: &planner.QueryNode{
				Path: "getBook",
				Join: &planner.Join{RowsPath: "getBook", ParentKey: "id", ChildKey: "id"},
			},
			want: map[string]any{"getBook": nil},
		},
		{
			name: "entity fields are copied into the matching rows",
			shared: map[string]any{
				"getBooksByIds": []any{
					map[string]any{"id": "1", "title": "A"},
					map[string]any{"id": "2", "title": "B"},
					map[string]any{"id": "3", "title": "C"},
				},
			},
			node: &planner.QueryNode{
				Path: "getBooksByIds",
				Join: &planner.Join{RowsPath: "getBooksByIds", ParentKey: "id", ChildKey: "id"},
				Result: []any{
					map[string]any{"id": "2", "rate": float64(5)},
					map[string]any{"id": "1", "rate": float64(3), "title": "ignored"},
				},
			},
			want: map[string]any{
				"getBooksByIds": []any{
					map[string]any{"id": "1", "title": "A", "rate": float64(3)},
					map[string]any{"id": "2", "title": "B", "rate": float64(5)},
					map[string]any{"id": "3", "title": "C"},
				},
			},
		},
		{
			name: "numeric and string keys join",
			shared: map[string]any{
				"getBook": map[string]any{"id": float64(1)},
			},
			node: &planner.QueryNode{
				Path:   "getBook",
				Join:   &planner.Join{RowsPath: "getBook", ParentKey: "id", ChildKey: "id"},
				Result: []any{map[string]any{"id": "1", "rate": float64(3)}},
			},
			want: map[string]any{
				"getBook": map[string]any{"id": float64(1), "rate": float64(3)},
			},
		},
		{
			name: "foreign key fills the suffix",
			shared: map[string]any{
				"songs": []any{
					map[string]any{"title": "a", "singerId": "103", "singer": map[string]any{"id": "103"}},
					map[string]any{"title": "b", "singerId": "102"},
					map[string]any{"title": "c", "singerId": nil},
				},
			},
			node: &planner.QueryNode{
				Path: "songs.singer",
				Join: &planner.Join{RowsPath: "songs", ParentKey: "singerId", ChildKey: "id", Suffix: []string{"singer"}},
				Result: []any{
					map[string]any{"id": "103", "lastName": "Molko"},
					map[string]any{"id": "102", "lastName": "Benigni"},
				},
			},
			want: map[string]any{
				"songs": []any{
					map[string]any{"title": "a", "singerId": "103", "singer": map[string]any{"id": "103", "lastName": "Molko"}},
					map[string]any{"title": "b", "singerId": "102", "singer": map[string]any{"id": "102", "lastName": "Benigni"}},
					map[string]any{"title": "c", "singerId": nil},
				},
			},
		},
		{
			name: "many relation collects every match",
			shared: map[string]any{
				"artists": []any{
					map[string]any{"id": "101"},
					map[string]any{"id": "103"},
				},
			},
			node: &planner.QueryNode{
				Path: "artists.songs",
				Join: &planner.Join{RowsPath: "artists", ParentKey: "id", ChildKey: "singerId", Suffix: []string{"songs"}, Many: true},
				Result: []any{
					map[string]any{"singerId": "103", "title": "Every you every me"},
					map[string]any{"singerId": "103", "title": "The bitter end"},
				},
			},
			want: map[string]any{
				"artists": []any{
					map[string]any{"id": "101", "songs": []any{}},
					map[string]any{"id": "103", "songs": []any{
						map[string]any{"singerId": "103", "title": "Every you every me"},
						map[string]any{"singerId": "103", "title": "The bitter end"},
					}},
				},
			},
		},
		{
			name: "list of keys joins a list of rows",
			shared: map[string]any{
				"getPlaylist": map[string]any{"songIds": []any{"2", "1", "9"}},
			},
			node: &planner.QueryNode{
				Path: "getPlaylist.songs",
				Join: &planner.Join{RowsPath: "getPlaylist", ParentKey: "songIds", ChildKey: "id", Suffix: []string{"songs"}},
				Result: []any{
					map[string]any{"id": "1", "title": "one"},
					map[string]any{"id": "2", "title": "two"},
				},
			},
			want: map[string]any{
				"getPlaylist": map[string]any{
					"songIds": []any{"2", "1", "9"},
					"songs": []any{
						map[string]any{"id": "2", "title": "two"},
						map[string]any{"id": "1", "title": "one"},
					},
				},
			},
		},
		{
			name: "nested rows are reached through lists",
			shared: map[string]any{
				"artists": []any{
					map[string]any{"songs": []any{
						map[string]any{"singerId": "103"},
					}},
					map[string]any{"songs": []any{}},
				},
			},
			node: &planner.QueryNode{
				Path:   "artists.songs.singer",
				Join:   &planner.Join{RowsPath: "artists.songs", ParentKey: "singerId", ChildKey: "id", Suffix: []string{"singer"}},
				Result: []any{map[string]any{"id": "103", "firstName": "Brian"}},
			},
			want: map[string]any{
				"artists": []any{
					map[string]any{"songs": []any{
						map[string]any{"singerId": "103", "singer": map[string]any{"id": "103", "firstName": "Brian"}},
					}},
					map[string]any{"songs": []any{}},
				},
			},
		},
		{
			name:   "result without parents lands at the rows path",
			shared: map[string]any{},
			node: &planner.QueryNode{
				Path:   "getBook",
				Join:   &planner.Join{RowsPath: "getBook", ParentKey: "id", ChildKey: "id"},
				Result: map[string]any{"id": "1"},
			},
			want: map[string]any{"getBook": map[string]any{"id": "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor.Merge(tt.shared, tt.node)
			if diff := cmp.Diff(tt.shared, tt.want); diff != "" {
				t.Errorf("Merge mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestMerge_Twice(t *testing.T) {
	tests := []struct {
		name   string
		shared func() map[string]any
		node   func() *planner.QueryNode
	}{
		{
			name: "entity fields",
			shared: func() map[string]any {
				return map[string]any{"getBook": map[string]any{"id": "1", "title": "A"}}
			},
			node: func() *planner.QueryNode {
				return &planner.QueryNode{
					Path:   "getBook",
					Join:   &planner.Join{RowsPath: "getBook", ParentKey: "id", ChildKey: "id"},
					Result: []any{map[string]any{"id": "1", "rate": float64(3)}},
				}
			},
		},
		{
			name: "suffix join",
			shared: func() map[string]any {
				return map[string]any{"songs": []any{
					map[string]any{"singerId": "103"},
					map[string]any{"singerId": "102", "singer": map[string]any{"id": "102"}},
				}}
			},
			node: func() *planner.QueryNode {
				return &planner.QueryNode{
					Path: "songs.singer",
					Join: &planner.Join{RowsPath: "songs", ParentKey: "singerId", ChildKey: "id", Suffix: []string{"singer"}},
					Result: []any{
						map[string]any{"id": "103", "lastName": "Molko"},
						map[string]any{"id": "102", "lastName": "Benigni"},
					},
				}
			},
		},
		{
			name: "many join",
			shared: func() map[string]any {
				return map[string]any{"artists": []any{
					map[string]any{"id": "101"},
					map[string]any{"id": "103"},
				}}
			},
			node: func() *planner.QueryNode {
				return &planner.QueryNode{
					Path: "artists.songs",
					Join: &planner.Join{RowsPath: "artists", ParentKey: "id", ChildKey: "singerId", Suffix: []string{"songs"}, Many: true},
					Result: []any{
						map[string]any{"singerId": "103", "title": "Every you every me"},
						map[string]any{"singerId": "103", "title": "The bitter end"},
					},
				}
			},
		},
		{
			name: "rows under a list field",
			shared: func() map[string]any {
				return map[string]any{"getBook": map[string]any{"authors": []any{
					map[string]any{"id": "10"},
					map[string]any{"id": "11"},
				}}}
			},
			node: func() *planner.QueryNode {
				return &planner.QueryNode{
					Path: "getBook.authors",
					Join: &planner.Join{RowsPath: "getBook.authors", ParentKey: "id", ChildKey: "id"},
					Result: []any{
						map[string]any{"id": "11", "name": map[string]any{"lastName": "Connor"}},
						map[string]any{"id": "10", "name": map[string]any{"lastName": "Johnson"}},
					},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.shared()
			executor.Merge(once, tt.node())

			twice := tt.shared()
			node := tt.node()
			executor.Merge(twice, node)
			executor.Merge(twice, node)

			if diff := cmp.Diff(twice, once); diff != "" {
				t.Errorf("second Merge changed the result (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRowsAt(t *testing.T) {
	shared := map[string]any{
		"artists": []any{
			map[string]any{"id": "1", "songs": []any{
				map[string]any{"id": "a"},
				nil,
			}},
			nil,
			map[string]any{"id": "2", "songs": []any{
				[]any{map[string]any{"id": "b"}},
			}},
			map[string]any{"id": "3"},
		},
	}

	tests := []struct {
		name string
		path string
		want []map[string]any
	}{
		{
			name: "top level list",
			path: "artists",
			want: []map[string]any{
				shared["artists"].([]any)[0].(map[string]any),
				shared["artists"].([]any)[2].(map[string]any),
				shared["artists"].([]any)[3].(map[string]any),
			},
		},
		{
			name: "nested lists are flattened",
			path: "artists.songs",
			want: []map[string]any{{"id": "a"}, {"id": "b"}},
		},
		{
			name: "missing path",
			path: "albums",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := executor.RowsAt(shared, tt.path)
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("RowsAt mismatch (-got +want):\n%s", diff)
			}
		})
	}
}
