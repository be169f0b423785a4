package driven

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// ResourceCatalog lists the remediation resources (programmes and
// experts) available for recommendation matching.
type ResourceCatalog interface {
	// Resources returns all catalog entries.
	Resources(ctx context.Context) ([]domain.Resource, error)
}
