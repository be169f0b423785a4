package driven

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// EntityExtractor pulls structured facts (monetary amounts, named roles,
// jurisdiction strings) out of normalised text. Structured gap checks
// run directly against the result; no embedding similarity is involved.
//
// Extraction must be deterministic: the same text always yields the
// same entities.
type EntityExtractor interface {
	// Extract returns the structured facts found in text.
	Extract(ctx context.Context, text string) (domain.DocumentEntities, error)
}
