package introspection

import "strings"

// Query is the standard GraphQL introspection query sent to every subgraph's
// compose endpoint.
const Query = `{
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      kind name description
      fields(includeDeprecated: true) {
        name description isDeprecated deprecationReason
        args { name description type { ...TypeRef } defaultValue }
        type { ...TypeRef }
      }
      inputFields { name description type { ...TypeRef } defaultValue }
      interfaces { ...TypeRef }
      enumValues(includeDeprecated: true) { name description isDeprecated deprecationReason }
      possibleTypes { ...TypeRef }
    }
  }
}

fragment TypeRef on __Type {
  kind name
  ofType {
    kind name
    ofType {
      kind name
      ofType {
        kind name
        ofType {
          kind name
          ofType {
            kind name
            ofType { kind name }
          }
        }
      }
    }
  }
}`

// Type kinds as reported by __Type.kind.
const (
	KindScalar      = "SCALAR"
	KindObject      = "OBJECT"
	KindInterface   = "INTERFACE"
	KindUnion       = "UNION"
	KindEnum        = "ENUM"
	KindInputObject = "INPUT_OBJECT"
	KindList        = "LIST"
	KindNonNull     = "NON_NULL"
)

// Response is the body returned by a subgraph for Query.
type Response struct {
	Data struct {
		Schema Schema `json:"__schema"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Schema is the __schema object of an introspection result.
type Schema struct {
	QueryType        *TypeName  `json:"queryType"`
	MutationType     *TypeName  `json:"mutationType"`
	SubscriptionType *TypeName  `json:"subscriptionType"`
	Types            []FullType `json:"types"`
}

type TypeName struct {
	Name string `json:"name"`
}

// FullType is one entry of __schema.types.
type FullType struct {
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Fields        []Field      `json:"fields,omitempty"`
	InputFields   []InputValue `json:"inputFields,omitempty"`
	Interfaces    []TypeRef    `json:"interfaces,omitempty"`
	EnumValues    []EnumValue  `json:"enumValues,omitempty"`
	PossibleTypes []TypeRef    `json:"possibleTypes,omitempty"`
}

type Field struct {
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Args              []InputValue `json:"args,omitempty"`
	Type              TypeRef      `json:"type"`
	IsDeprecated      bool         `json:"isDeprecated"`
	DeprecationReason string       `json:"deprecationReason,omitempty"`
}

// InputValue is an argument or an input object field.
type InputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Type         TypeRef `json:"type"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// TypeRef is a possibly wrapped (LIST, NON_NULL) reference to a named type.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   *string  `json:"name,omitempty"`
	OfType *TypeRef `json:"ofType,omitempty"`
}

type EnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

// NamedType returns the name of the type with all LIST and NON_NULL wrappers stripped.
func (t TypeRef) NamedType() string {
	cur := &t
	for cur != nil {
		if cur.Name != nil && *cur.Name != "" {
			return *cur.Name
		}
		cur = cur.OfType
	}
	return ""
}

// IsList reports whether the reference contains a LIST wrapper at any level.
func (t TypeRef) IsList() bool {
	for cur := &t; cur != nil; cur = cur.OfType {
		if cur.Kind == KindList {
			return true
		}
	}
	return false
}

// String renders the reference in SDL notation, e.g. "[Book!]!".
func (t TypeRef) String() string {
	switch t.Kind {
	case KindNonNull:
		if t.OfType == nil {
			return ""
		}
		return t.OfType.String() + "!"
	case KindList:
		if t.OfType == nil {
			return "[]"
		}
		return "[" + t.OfType.String() + "]"
	}
	if t.Name == nil {
		return ""
	}
	return *t.Name
}

// Named builds a TypeRef for a named type of the given kind.
func Named(kind, name string) TypeRef {
	return TypeRef{Kind: kind, Name: &name}
}

// ListOf wraps ref in a LIST.
func ListOf(ref TypeRef) TypeRef {
	return TypeRef{Kind: KindList, OfType: &ref}
}

// IsReserved reports whether name belongs to the introspection system.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, "__")
}
