package driving

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// CorpusService manages the regulatory corpus index.
type CorpusService interface {
	// Rebuild chunks and embeds the given articles into a fresh index
	// and atomically makes it the current revision. Concurrent
	// evaluation reads are never blocked; a second concurrent rebuild
	// fails with domain.ErrReindexInProgress.
	Rebuild(ctx context.Context, articles []domain.RegulatoryArticle) (revision string, err error)

	// Revision returns the current corpus revision ID.
	Revision(ctx context.Context) (string, error)
}
