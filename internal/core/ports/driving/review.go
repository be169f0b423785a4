package driving

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// ReviewService is the human-in-the-loop adjudication boundary.
type ReviewService interface {
	// ListPending returns all runs awaiting expert review.
	ListPending(ctx context.Context) ([]domain.ReviewFlag, error)

	// SubmitReview records an expert decision for a flagged run and
	// moves it to the reviewed state. The decision is appended to the
	// flag's feedback history and never discarded.
	SubmitReview(ctx context.Context, runID string, decision domain.ReviewDecision) (*domain.ReviewFlag, error)
}
