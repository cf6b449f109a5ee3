package gql

import (
	_ "embed"

	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// NewSchema parses the API schema against r. A maxDepth of zero disables the depth limit.
func NewSchema(r *Resolver, maxDepth int) (*graphql.Schema, error) {
	var opts []graphql.SchemaOpt
	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}
	return graphql.ParseSchema(schemaSDL, r, opts...)
}

func MustNewSchema(r *Resolver, maxDepth int) *graphql.Schema {
	s, err := NewSchema(r, maxDepth)
	if err != nil {
		panic(err)
	}
	return s
}
