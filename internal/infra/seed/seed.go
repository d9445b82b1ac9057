// Package seed carries the portal's built-in catalog. It is used as the
// in-memory data source and to populate Postgres via the seed command.
package seed

import (
	_ "embed"
	"fmt"

	"geoportal-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog decodes the embedded catalog. Each call returns a fresh copy.
func Catalog() (domain.Catalog, error) {
	return Decode(catalogYAML)
}

// Decode parses a catalog document in the embedded YAML layout.
func Decode(data []byte) (domain.Catalog, error) {
	var catalog domain.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return catalog, nil
}

// MustCatalog panics if the embedded catalog cannot be decoded.
func MustCatalog() domain.Catalog {
	catalog, err := Catalog()
	if err != nil {
		panic(err)
	}
	return catalog
}
