// Package schema holds the DefraDB collection definitions for submissions,
// their price items and model call traces.
package schema

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed schemas/*.graphql
var schemaFS embed.FS

// Schema is one DefraDB collection definition.
type Schema struct {
	Name string
	SDL  string
}

// Collections in creation order.
var collections = []string{"MarketPrice", "PriceItem", "LLMCall"}

// All returns every schema in creation order.
func All() ([]Schema, error) {
	schemas := make([]Schema, 0, len(collections))
	for _, name := range collections {
		s, err := load(name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// Get returns a single schema by collection name.
func Get(name string) (*Schema, error) {
	for _, c := range collections {
		if c == name {
			s, err := load(name)
			if err != nil {
				return nil, err
			}
			return &s, nil
		}
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

func load(name string) (Schema, error) {
	content, err := schemaFS.ReadFile("schemas/" + strings.ToLower(name) + ".graphql")
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	return Schema{Name: name, SDL: string(content)}, nil
}
