// Package file loads the remediation resource catalog from a JSON
// file. A built-in catalog is embedded for installations that have not
// supplied their own.
package file

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

//go:embed resources.json
var defaultCatalog []byte

// Ensure Catalog implements the interface.
var _ driven.ResourceCatalog = (*Catalog)(nil)

// catalogFile is the on-disk catalog layout.
type catalogFile struct {
	Resources []resourceEntry `json:"resources"`
}

// resourceEntry is one catalog entry as serialised.
type resourceEntry struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	Tags     []string `json:"tags"`
	Priority int      `json:"priority"`
	Contact  string   `json:"contact"`
}

// Catalog is a JSON-backed remediation resource catalog. The catalog
// is loaded once at construction; resources are static reference data.
type Catalog struct {
	resources []domain.Resource
}

// NewCatalog loads the catalog at path. An empty path loads the
// embedded default catalog.
func NewCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
	}

	var parsed catalogFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	resources := make([]domain.Resource, 0, len(parsed.Resources))
	for _, entry := range parsed.Resources {
		resource := domain.Resource{
			ID:       entry.ID,
			Type:     domain.ResourceType(entry.Type),
			Name:     entry.Name,
			Tags:     entry.Tags,
			Priority: entry.Priority,
			Contact:  entry.Contact,
		}
		if resource.ID == "" || resource.Name == "" {
			return nil, &domain.ConfigurationError{
				Field:  "catalog.resources",
				Reason: "resource missing id or name",
			}
		}
		if !resource.Type.IsValid() {
			return nil, &domain.ConfigurationError{
				Field:  "catalog.resources",
				Reason: fmt.Sprintf("unknown resource type %q for %s", entry.Type, entry.ID),
			}
		}
		resources = append(resources, resource)
	}

	return &Catalog{resources: resources}, nil
}

// Resources returns all catalog entries.
func (c *Catalog) Resources(_ context.Context) ([]domain.Resource, error) {
	out := make([]domain.Resource, len(c.resources))
	copy(out, c.resources)
	return out, nil
}
