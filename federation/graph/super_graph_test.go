package graph_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/federation/graph"
	"github.com/n9te9/go-graphql-composer/internal/catalogtest"
	"github.com/vektah/gqlparser/v2"
	gqlast "github.com/vektah/gqlparser/v2/ast"
)

func bookSubGraphs() (catalogtest.SubGraph, catalogtest.SubGraph) {
	books := catalogtest.SubGraph{
		SubGraph: graph.NewSubGraph("books", graph.Server{Host: "http://books"}, map[string]*graph.Entity{
			"Book": {PKey: "id", Resolver: &graph.Resolver{Name: "getBooksByIds"}},
		}),
		Schema: catalogtest.Schema(
			catalogtest.Object("Query",
				catalogtest.Field("getBook", "Book", "id", "ID!"),
				catalogtest.Field("booksByGenre", "[Book]", "genre", "BookGenre!"),
			),
			catalogtest.Object("Book",
				catalogtest.Field("id", "ID!"),
				catalogtest.Field("title", "String"),
				catalogtest.Field("genre", "BookGenre"),
			),
			catalogtest.Enum("BookGenre", "FICTION", "NONFICTION"),
		),
	}
	reviews := catalogtest.SubGraph{
		SubGraph: graph.NewSubGraph("reviews", graph.Server{Host: "http://reviews"}, map[string]*graph.Entity{
			"Book": {
				PKey:     "id",
				Resolver: &graph.Resolver{Name: "getReviewBooks"},
				Many:     []graph.Many{{Type: "Review", As: "allReviews", FKey: "bookId", SubGraph: "reviews", Resolver: &graph.Resolver{Name: "reviewsByBooks"}}},
			},
		}),
		Schema: catalogtest.Schema(
			catalogtest.Object("Query",
				catalogtest.Field("getReviewBooks", "[Book]", "bookIds", "[ID]!"),
				catalogtest.Field("reviewsByBooks", "[Review]", "bookIds", "[ID]!"),
			),
			catalogtest.Object("Book",
				catalogtest.Field("id", "ID!"),
				catalogtest.Field("rate", "Int"),
			),
			catalogtest.Object("Review",
				catalogtest.Field("id", "ID!"),
				catalogtest.Field("bookId", "ID"),
				catalogtest.Field("rating", "Int"),
			),
		),
	}
	return books, reviews
}

func TestSuperGraph_MergeIntrospection(t *testing.T) {
	books, reviews := bookSubGraphs()

	sg := graph.NewSuperGraph("Query", "Mutation")
	if warnings := sg.MergeIntrospection(books.SubGraph, books.Schema); len(warnings) > 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if warnings := sg.MergeIntrospection(reviews.SubGraph, reviews.Schema); len(warnings) > 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	tests := []struct {
		name    string
		fieldID string
		want    []string
	}{
		{name: "root field", fieldID: "Query.getBook", want: []string{"books"}},
		{name: "shared key", fieldID: "Book.id", want: []string{"books", "reviews"}},
		{name: "extension field", fieldID: "Book.rate", want: []string{"reviews"}},
		{name: "unknown field", fieldID: "Book.nope", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(sg.FieldOwners(tt.fieldID), tt.want); diff != "" {
				t.Errorf("FieldOwners mismatch (-got +want):\n%s", diff)
			}
		})
	}

	if r := sg.Field("Query.getBook", "books").Resolver; r == nil || r.Name != "getBook" {
		t.Errorf("expected root fields to carry a resolver, got %+v", r)
	}
	if r := sg.Field("Book.title", "books").Resolver; r != nil {
		t.Errorf("expected no resolver on entity fields, got %+v", r)
	}
	if e := sg.Type("Book", "reviews").Entity; e == nil || e.Resolver.Name != "getReviewBooks" {
		t.Errorf("expected the reviews Book entity, got %+v", e)
	}
	if kind := sg.TypeKind("BookGenre"); kind != "ENUM" {
		t.Errorf("TypeKind(BookGenre) = %q, want ENUM", kind)
	}

	typeNames := make([]string, 0)
	for name := range sg.TypesForSubGraph("reviews") {
		typeNames = append(typeNames, name)
	}
	for _, want := range []string{"Query", "Book", "Review"} {
		found := false
		for _, name := range typeNames {
			found = found || name == want
		}
		if !found {
			t.Errorf("TypesForSubGraph(reviews) misses %s", want)
		}
	}
	if _, ok := sg.FieldsForSubGraph("books")["Book.rate"]; ok {
		t.Error("FieldsForSubGraph(books) must not contain Book.rate")
	}

	view := sg.View("reviews")
	if view.Field("Book.rate") == nil || view.Type("Review") == nil {
		t.Error("View(reviews) must expose Book.rate and Review")
	}
	if view.Field("Book.title") != nil {
		t.Error("View(reviews) must not expose Book.title")
	}
}

func TestSuperGraph_MergeIntrospectionDuplicates(t *testing.T) {
	books, _ := bookSubGraphs()

	sg := graph.NewSuperGraph("Query", "Mutation")
	sg.MergeIntrospection(books.SubGraph, books.Schema)
	warnings := sg.MergeIntrospection(books.SubGraph, books.Schema)
	if len(warnings) == 0 {
		t.Fatal("expected warnings when merging a subgraph twice")
	}
	for _, w := range warnings {
		if !errors.Is(w, graph.ErrDuplicateType) {
			t.Errorf("unexpected warning: %v", w)
		}
	}
	if diff := cmp.Diff(sg.FieldOwners("Query.getBook"), []string{"books"}); diff != "" {
		t.Errorf("FieldOwners mismatch (-got +want):\n%s", diff)
	}
}

func TestSuperGraph_AddLinks(t *testing.T) {
	books, reviews := bookSubGraphs()
	sg := catalogtest.SuperGraph(books, reviews)

	field := sg.Field("Book.allReviews", graph.ComposerSubGraph)
	if field == nil {
		t.Fatal("expected link field Book.allReviews")
	}
	if field.Link == nil || field.Link.Many == nil || field.Link.SubGraph != "reviews" {
		t.Errorf("unexpected link: %+v", field.Link)
	}
	if field.TypeName != "Review" || field.Src.Type.String() != "[Review]" {
		t.Errorf("unexpected link type %s", field.Src.Type.String())
	}

	// a link never shadows a field declared by a subgraph
	sg2 := graph.NewSuperGraph("Query", "Mutation")
	clash := graph.NewSubGraph("reviews", graph.Server{Host: "http://reviews"}, map[string]*graph.Entity{
		"Book": {PKey: "id", Many: []graph.Many{{Type: "Review", As: "rate", FKey: "bookId", SubGraph: "reviews"}}},
	})
	sg2.MergeIntrospection(clash, reviews.Schema)
	warnings := sg2.AddLinks()
	if len(warnings) != 1 || !errors.Is(warnings[0], graph.ErrDuplicateField) {
		t.Errorf("expected one ErrDuplicateField warning, got %v", warnings)
	}
}

func TestMergedSchema_SDL(t *testing.T) {
	books, reviews := bookSubGraphs()
	sg := catalogtest.SuperGraph(books, reviews)

	sdl, err := sg.MergedSchema().SDL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	schema, gerr := gqlparser.LoadSchema(&gqlast.Source{Name: "merged.graphql", Input: sdl})
	if gerr != nil {
		t.Fatalf("merged SDL is not valid: %v\n%s", gerr, sdl)
	}

	book := schema.Types["Book"]
	if book == nil {
		t.Fatalf("Book missing from merged SDL:\n%s", sdl)
	}
	var fields []string
	for _, f := range book.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		fields = append(fields, f.Name)
	}
	if diff := cmp.Diff(fields, []string{"id", "title", "genre", "rate", "allReviews"}); diff != "" {
		t.Errorf("Book fields mismatch (-got +want):\n%s", diff)
	}

	query := schema.Query
	if query == nil || query.Fields.ForName("getBook") == nil || query.Fields.ForName("reviewsByBooks") == nil {
		t.Errorf("expected root fields of every subgraph:\n%s", sdl)
	}
	if schema.Types["BookGenre"] == nil || len(schema.Types["BookGenre"].EnumValues) != 2 {
		t.Errorf("expected BookGenre enum:\n%s", sdl)
	}
}

func TestMergedSchema_SDLWithoutQuery(t *testing.T) {
	sg := graph.NewSuperGraph("Query", "Mutation")
	if _, err := sg.BuildMergedSchema().SDL(); err == nil {
		t.Error("expected an error for a schema without query type")
	}
}
