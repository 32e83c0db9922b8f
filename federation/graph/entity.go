package graph

// Entity describes how rows of a type can be fetched and joined across subgraphs.
type Entity struct {
	PKey     string       // Primary key field name, may be a dotted path
	FKeys    []ForeignKey // Foreign keys pointing to entities of other subgraphs
	Many     []Many       // Reverse one-to-many relations
	Resolver *Resolver    // Fetch-by-primary-key resolver
}

// ForeignKey says that the local row carries the key of a row of Type living in SubGraph.
type ForeignKey struct {
	Type     string    // Target type name
	Field    string    // Dotted path of the local value; defaults to PKey
	PKey     string    // Remote key name; defaults to the target entity pkey
	As       string    // Optional link field published on the local type
	SubGraph string    // Subgraph owning Type
	Resolver *Resolver // Resolver fetching Type rows by key
}

// LocalKey returns the path of the local column holding the foreign value.
func (fk ForeignKey) LocalKey() string {
	if fk.Field != "" {
		return fk.Field
	}
	return fk.PKey
}

// Many is the reverse side of a foreign key: rows of Type in SubGraph point back to
// the local row through FKey.
type Many struct {
	Type     string    // Target type name
	As       string    // Optional link field published on the local type
	PKey     string    // Local key the remote FKey refers to; defaults to the local pkey
	FKey     string    // Column of the remote rows holding the local key
	SubGraph string    // Subgraph owning Type
	Resolver *Resolver // Resolver fetching Type rows by local keys
}

// Resolver describes a remote root field used to fetch rows.
type Resolver struct {
	Name           string      // Remote field name (e.g., "getBooksByIds")
	ArgsAdapter    ArgsAdapter // Turns parent rows into the arguments object
	PartialResults RowsFilter  // Filters or maps parent rows before ArgsAdapter
}

// Link is the join metadata of a link field published by the composer itself.
type Link struct {
	SubGraph   string      // Subgraph declaring the relation
	ForeignKey *ForeignKey // Set for fkeys[].as
	Many       *Many       // Set for many[].as
}
