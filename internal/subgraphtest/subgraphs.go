package subgraphtest

import (
	"strconv"
	"sync"

	"github.com/graphql-go/graphql"
)

type row = map[string]any

var artistRows = []row{
	{"id": "101", "firstName": "Christopher", "lastName": "Nolan", "profession": "Director"},
	{"id": "102", "firstName": "Roberto", "lastName": "Benigni", "profession": "Director"},
	{"id": "103", "firstName": "Brian", "lastName": "Molko", "profession": "Singer"},
}

var songRows = []row{
	{"id": "1", "title": "Every you every me", "singerId": "103"},
	{"id": "2", "title": "The bitter end", "singerId": "103"},
	{"id": "3", "title": "Vieni via con me", "singerId": "102"},
}

var movieRows = []row{
	{"id": "10", "title": "Interstellar", "directorId": "101"},
	{"id": "11", "title": "Oppenheimer", "directorId": "101"},
	{"id": "12", "title": "La vita é bella", "directorId": "102"},
}

var bookRows = []row{
	{"id": "1", "title": "A Book About Things That Never Happened", "genre": "FICTION", "authorId": "10", "coAuthorIds": []string{"10", "11"}},
	{"id": "2", "title": "A Book About Things That Really Happened", "genre": "NONFICTION", "authorId": "10", "coAuthorIds": []string{"10"}},
	{"id": "3", "title": "From the universe", "genre": "FICTION", "authorId": "11", "coAuthorIds": []string{"11"}},
	{"id": "4", "title": "From another world", "genre": "FICTION", "authorId": "11", "coAuthorIds": []string{"11"}},
}

var reviewRows = []row{
	{"id": "1", "bookId": "1", "rating": 3, "content": "Would not read again."},
	{"id": "2", "bookId": "2", "rating": 5, "content": "Wonderful."},
	{"id": "3", "bookId": "4", "rating": 4, "content": "Good."},
}

func filterBy(rows []row, column string, values []string) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		if contains(values, r[column].(string)) {
			out = append(out, r)
		}
	}
	return out
}

func idsArg(name string) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		name: &graphql.ArgumentConfig{Type: graphql.NewList(graphql.ID)},
	}
}

// Artists serves Artist{id firstName lastName profession} with
// artists(ids, where: {id: {in}}).
func Artists() *SubGraph {
	artist := graphql.NewObject(graphql.ObjectConfig{
		Name: "Artist",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.ID},
			"firstName":  &graphql.Field{Type: graphql.String},
			"lastName":   &graphql.Field{Type: graphql.String},
			"profession": &graphql.Field{Type: graphql.String},
		},
	})
	idsIn := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IdsIn",
		Fields: graphql.InputObjectConfigFieldMap{
			"in": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.ID)},
		},
	})
	where := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ArtistsWhere",
		Fields: graphql.InputObjectConfigFieldMap{
			"id": &graphql.InputObjectFieldConfig{Type: idsIn},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"artists": &graphql.Field{
				Type: graphql.NewList(artist),
				Args: graphql.FieldConfigArgument{
					"ids":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.ID)},
					"where": &graphql.ArgumentConfig{Type: where},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					ids := stringList(p.Args["ids"])
					if w, ok := p.Args["where"].(map[string]any); ok {
						if id, ok := w["id"].(map[string]any); ok {
							ids = append(ids, stringList(id["in"])...)
						}
					}
					return filterBy(artistRows, "id", ids), nil
				},
			},
		},
	})

	return &SubGraph{
		Name:   "artists-subgraph",
		Schema: mustSchema(graphql.SchemaConfig{Query: query}),
	}
}

// Songs serves Song{id title singerId singer} and Artist{id songs}.
func Songs() *SubGraph {
	song := graphql.NewObject(graphql.ObjectConfig{
		Name: "Song",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":    &graphql.Field{Type: graphql.String},
			"singerId": &graphql.Field{Type: graphql.ID},
		},
	})
	artist := graphql.NewObject(graphql.ObjectConfig{
		Name: "Artist",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.ID},
			"songs": &graphql.Field{
				Type: graphql.NewList(song),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					parent, _ := p.Source.(row)
					id, _ := parent["id"].(string)
					return filterBy(songRows, "singerId", []string{id}), nil
				},
			},
		},
	})
	song.AddFieldConfig("singer", &graphql.Field{
		Type: artist,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			parent, _ := p.Source.(row)
			if parent["singerId"] == nil {
				return nil, nil
			}
			return row{"id": parent["singerId"]}, nil
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"songs": &graphql.Field{
				Type: graphql.NewList(song),
				Args: idsArg("ids"),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return filterBy(songRows, "id", stringList(p.Args["ids"])), nil
				},
			},
			"getSongsByArtists": &graphql.Field{
				Type: graphql.NewList(song),
				Args: idsArg("ids"),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return filterBy(songRows, "singerId", stringList(p.Args["ids"])), nil
				},
			},
		},
	})

	return &SubGraph{
		Name:   "songs-subgraph",
		Schema: mustSchema(graphql.SchemaConfig{Query: query}),
	}
}

// Movies serves Movie{id title directorId director} and Artist{id movies}.
func Movies() *SubGraph {
	movie := graphql.NewObject(graphql.ObjectConfig{
		Name: "Movie",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":      &graphql.Field{Type: graphql.String},
			"directorId": &graphql.Field{Type: graphql.ID},
		},
	})
	artist := graphql.NewObject(graphql.ObjectConfig{
		Name: "Artist",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.ID},
			"movies": &graphql.Field{
				Type: graphql.NewList(movie),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					parent, _ := p.Source.(row)
					id, _ := parent["id"].(string)
					return filterBy(movieRows, "directorId", []string{id}), nil
				},
			},
		},
	})
	movie.AddFieldConfig("director", &graphql.Field{
		Type: artist,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			parent, _ := p.Source.(row)
			if parent["directorId"] == nil {
				return nil, nil
			}
			return row{"id": parent["directorId"]}, nil
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"movies": &graphql.Field{
				Type: graphql.NewList(movie),
				Args: idsArg("ids"),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return filterBy(movieRows, "id", stringList(p.Args["ids"])), nil
				},
			},
			"getMoviesByArtists": &graphql.Field{
				Type: graphql.NewList(movie),
				Args: idsArg("ids"),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return filterBy(movieRows, "directorId", stringList(p.Args["ids"])), nil
				},
			},
		},
	})

	return &SubGraph{
		Name:   "movies-subgraph",
		Schema: mustSchema(graphql.SchemaConfig{Query: query}),
	}
}

// Books serves Book{id title genre author{id} authors{id}} with getBook, getBooksByIds and
// booksByAuthors.
func Books() *SubGraph {
	genre := graphql.NewEnum(graphql.EnumConfig{
		Name: "BookGenre",
		Values: graphql.EnumValueConfigMap{
			"FICTION":    &graphql.EnumValueConfig{Value: "FICTION"},
			"NONFICTION": &graphql.EnumValueConfig{Value: "NONFICTION"},
		},
	})
	author := graphql.NewObject(graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.ID},
		},
	})
	book := graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title": &graphql.Field{Type: graphql.String},
			"genre": &graphql.Field{Type: genre},
			"author": &graphql.Field{
				Type: author,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					parent, _ := p.Source.(row)
					return row{"id": parent["authorId"]}, nil
				},
			},
			"authors": &graphql.Field{
				Type: graphql.NewList(author),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					parent, _ := p.Source.(row)
					ids, _ := parent["coAuthorIds"].([]string)
					out := make([]any, 0, len(ids))
					for _, id := range ids {
						out = append(out, row{"id": id})
					}
					return out, nil
				},
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getBook": &graphql.Field{
				Type: book,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					for _, b := range bookRows {
						if b["id"] == id {
							return b, nil
						}
					}
					return nil, nil
				},
			},
			"getBooksByIds": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(book)),
				Args: graphql.FieldConfigArgument{
					"ids": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.ID))},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return filterBy(bookRows, "id", stringList(p.Args["ids"])), nil
				},
			},
			"booksByAuthors": &graphql.Field{
				Type: graphql.NewList(book),
				Args: graphql.FieldConfigArgument{
					"authorIds": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID)))},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return filterBy(bookRows, "authorId", stringList(p.Args["authorIds"])), nil
				},
			},
			"booksByGenre": &graphql.Field{
				Type: graphql.NewList(book),
				Args: graphql.FieldConfigArgument{
					"genre": &graphql.ArgumentConfig{Type: graphql.NewNonNull(genre)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					g, _ := p.Args["genre"].(string)
					return filterBy(bookRows, "genre", []string{g}), nil
				},
			},
		},
	})

	return &SubGraph{
		Name:   "books-subgraph",
		Schema: mustSchema(graphql.SchemaConfig{Query: query}),
	}
}

// Reviews serves Book{id rate reviews} keyed by book id.
func Reviews() *SubGraph {
	review := graphql.NewObject(graphql.ObjectConfig{
		Name: "Review",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"rating":  &graphql.Field{Type: graphql.Int},
			"content": &graphql.Field{Type: graphql.String},
		},
	})
	book := graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"rate":    &graphql.Field{Type: graphql.Int},
			"reviews": &graphql.Field{Type: graphql.NewList(review)},
		},
	})

	reviewBook := func(id string) any {
		reviews := filterBy(reviewRows, "bookId", []string{id})
		if len(reviews) == 0 {
			return nil
		}
		total := 0
		for _, r := range reviews {
			total += r.(row)["rating"].(int)
		}
		return row{"id": id, "rate": total / len(reviews), "reviews": reviews}
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getReviewBook": &graphql.Field{
				Type: book,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					return reviewBook(id), nil
				},
			},
			"getReviewBooks": &graphql.Field{
				Type: graphql.NewList(book),
				Args: graphql.FieldConfigArgument{
					"bookIds": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.ID))},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					out := make([]any, 0)
					for _, id := range stringList(p.Args["bookIds"]) {
						if b := reviewBook(id); b != nil {
							out = append(out, b)
						}
					}
					return out, nil
				},
			},
		},
	})

	return &SubGraph{
		Name:   "reviews-subgraph",
		Schema: mustSchema(graphql.SchemaConfig{Query: query}),
	}
}

// Authors serves Author{id name{firstName lastName}} with authors(where: {ids: {in}})
// and the createAuthor and batchCreateAuthor mutations.
func Authors() *SubGraph {
	var mu sync.Mutex
	authors := []row{
		{"id": "10", "name": row{"firstName": "John Jr.", "lastName": "Johnson"}},
		{"id": "11", "name": row{"firstName": "Cindy", "lastName": "Connor"}},
	}

	name := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthorName",
		Fields: graphql.Fields{
			"firstName": &graphql.Field{Type: graphql.String},
			"lastName":  &graphql.Field{Type: graphql.String},
		},
	})
	author := graphql.NewObject(graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.ID},
			"name": &graphql.Field{Type: name},
		},
	})
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AuthorInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"firstName": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"lastName":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	idsIn := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IdsIn",
		Fields: graphql.InputObjectConfigFieldMap{
			"in": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.ID))},
		},
	})
	where := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "WhereIdsIn",
		Fields: graphql.InputObjectConfigFieldMap{
			"ids": &graphql.InputObjectFieldConfig{Type: idsIn},
		},
	})

	create := func(in any) row {
		fields, _ := in.(map[string]any)
		a := row{
			"id":   strconv.Itoa(100 + len(authors)),
			"name": row{"firstName": fields["firstName"], "lastName": fields["lastName"]},
		}
		authors = append(authors, a)
		return a
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"authors": &graphql.Field{
				Type: graphql.NewList(author),
				Args: graphql.FieldConfigArgument{
					"where": &graphql.ArgumentConfig{Type: where},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					mu.Lock()
					defer mu.Unlock()
					var ids []string
					if w, ok := p.Args["where"].(map[string]any); ok {
						if in, ok := w["ids"].(map[string]any); ok {
							ids = stringList(in["in"])
						}
					}
					return filterBy(authors, "id", ids), nil
				},
			},
		},
	})
	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createAuthor": &graphql.Field{
				Type: graphql.NewNonNull(author),
				Args: graphql.FieldConfigArgument{
					"author": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					mu.Lock()
					defer mu.Unlock()
					return create(p.Args["author"]), nil
				},
			},
			"batchCreateAuthor": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(author)),
				Args: graphql.FieldConfigArgument{
					"authors": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(input))},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					mu.Lock()
					defer mu.Unlock()
					items, _ := p.Args["authors"].([]any)
					out := make([]any, 0, len(items))
					for _, item := range items {
						out = append(out, create(item))
					}
					return out, nil
				},
			},
		},
	})

	return &SubGraph{
		Name:   "authors-subgraph",
		Schema: mustSchema(graphql.SchemaConfig{Query: query, Mutation: mutation}),
	}
}
