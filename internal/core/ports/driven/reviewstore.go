package driven

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// ReviewStore persists review flags and their append-only feedback
// history, keyed by run ID. Flags are never deleted.
type ReviewStore interface {
	// Save stores a review flag. Saving an existing flag updates its
	// state but never truncates recorded feedback.
	Save(ctx context.Context, flag domain.ReviewFlag) error

	// Get returns the flag for a run, or domain.ErrNotFound.
	Get(ctx context.Context, runID string) (*domain.ReviewFlag, error)

	// ListPending returns all flags in the pending-review state.
	ListPending(ctx context.Context) ([]domain.ReviewFlag, error)

	// AppendFeedback appends one expert decision to a flag's history.
	AppendFeedback(ctx context.Context, runID string, feedback domain.ExpertFeedback) error
}
