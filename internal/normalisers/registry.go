// Package normalisers wires file-type specific normalisers behind a
// MIME-type registry.
package normalisers

import (
	"sort"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/normalisers/markdown"
	"github.com/custodia-labs/regready/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps MIME types to normalisers.
type Registry struct {
	byMIME map[string]driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers. Later
// registrations win on MIME type conflicts.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byMIME: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		for _, mime := range n.SupportedMIMETypes() {
			r.byMIME[mime] = n
		}
	}
	return r
}

// DefaultRegistry returns a registry with all built-in normalisers.
func DefaultRegistry() *Registry {
	return NewRegistry(plaintext.New(), markdown.New())
}

// ForMIMEType returns the normaliser for the given MIME type.
func (r *Registry) ForMIMEType(mimeType string) (driven.Normaliser, error) {
	n, ok := r.byMIME[mimeType]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return n, nil
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}
