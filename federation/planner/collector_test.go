package planner_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/federation/planner"
	"github.com/rs/zerolog"
)

func TestCollector_Collect(t *testing.T) {
	c := planner.NewCollector(musicCatalog(""))

	tests := []struct {
		name          string
		query         string
		wantQueries   []string
		wantDeferreds map[string][]string
	}{
		{
			name:        "local fields only",
			query:       `{ songs { id title } }`,
			wantQueries: []string{"songs"},
		},
		{
			name:          "foreign fields are deferred per path",
			query:         `{ songs { title singer { id firstName lastName } } }`,
			wantQueries:   []string{"songs"},
			wantDeferreds: map[string][]string{"songs.singer": {"firstName", "lastName"}},
		},
		{
			name:          "the same path selected twice folds into one group",
			query:         `{ songs { singer { firstName } singer { lastName } } }`,
			wantQueries:   []string{"songs"},
			wantDeferreds: map[string][]string{"songs.singer": {"firstName", "lastName"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, fragments := rootField(t, tt.query)
			ctx := planner.NewContext(zerolog.Nop(), nil, fragments)

			got, err := c.Collect(ctx, planner.CollectInput{SubGraph: "songs", FieldID: "Query.songs", Field: field})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(got.Queries.Keys(), tt.wantQueries); diff != "" {
				t.Errorf("queries mismatch (-got +want):\n%s", diff)
			}

			deferreds := make(map[string][]string)
			for _, dq := range got.Deferreds.Values() {
				deferreds[dq.Key] = dq.Fields
			}
			if tt.wantDeferreds == nil {
				tt.wantDeferreds = map[string][]string{}
			}
			if diff := cmp.Diff(deferreds, tt.wantDeferreds); diff != "" {
				t.Errorf("deferreds mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestOrderedMap(t *testing.T) {
	m := planner.NewOrderedMap[int]()
	if !m.Set("b", 1) || !m.Set("a", 2) {
		t.Fatal("expected new keys to be stored")
	}
	if m.Set("b", 3) {
		t.Error("expected an existing key to be kept")
	}

	if diff := cmp.Diff(m.Keys(), []string{"b", "a"}); diff != "" {
		t.Errorf("keys mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(m.Values(), []int{1, 2}); diff != "" {
		t.Errorf("values mismatch (-got +want):\n%s", diff)
	}
}
