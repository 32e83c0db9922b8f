package graph

import "strings"

const (
	DefaultComposeEndpoint = "/.well-known/graphql-composition"
	DefaultGraphQLEndpoint = "/graphql"
)

// Server describes where a subgraph lives.
type Server struct {
	Host            string // Base URL (e.g., "http://localhost:4001")
	ComposeEndpoint string // Path answering the introspection query
	GraphQLEndpoint string // Path answering regular queries
}

// ComposeURL returns the absolute URL of the compose endpoint.
func (s Server) ComposeURL() string {
	endpoint := s.ComposeEndpoint
	if endpoint == "" {
		endpoint = DefaultComposeEndpoint
	}
	return joinURL(s.Host, endpoint)
}

// GraphQLURL returns the absolute URL of the GraphQL endpoint.
func (s Server) GraphQLURL() string {
	endpoint := s.GraphQLEndpoint
	if endpoint == "" {
		endpoint = DefaultGraphQLEndpoint
	}
	return joinURL(s.Host, endpoint)
}

func joinURL(host, path string) string {
	return strings.TrimSuffix(host, "/") + "/" + strings.TrimPrefix(path, "/")
}

// SubGraph represents one upstream GraphQL service taking part in the composition.
// It is immutable once the composer is built.
type SubGraph struct {
	Name     string             // Subgraph name (e.g., "books-subgraph")
	Server   Server             // Network location
	Entities map[string]*Entity // Entity map with type name as key
}

// NewSubGraph creates a SubGraph. A nil entity map is replaced by an empty one.
func NewSubGraph(name string, server Server, entities map[string]*Entity) *SubGraph {
	if entities == nil {
		entities = make(map[string]*Entity)
	}
	return &SubGraph{
		Name:     name,
		Server:   server,
		Entities: entities,
	}
}

// GetEntity returns the entity configured for typeName on this subgraph.
func (s *SubGraph) GetEntity(typeName string) (*Entity, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.Entities[typeName]
	return e, ok
}
