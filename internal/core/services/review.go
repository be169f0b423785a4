package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/core/ports/driving"
	"github.com/custodia-labs/regready/internal/logger"
)

// ReviewGate decides whether an evaluation run needs human
// adjudication before its outcome is trusted.
type ReviewGate struct {
	scoreThreshold float64
}

// NewReviewGate creates a review gate. Runs scoring below the
// threshold are flagged.
func NewReviewGate(scoreThreshold float64) *ReviewGate {
	return &ReviewGate{scoreThreshold: scoreThreshold}
}

// Check evaluates the flagging criteria: an overall score below the
// threshold, any high-risk gap, or a semantic candidate that scored
// below the confidence floor. It returns nil when the run
// auto-resolves.
func (g *ReviewGate) Check(
	runID string,
	card domain.Scorecard,
	gaps []domain.Gap,
	reviewReasons []string,
) *domain.ReviewFlag {
	var reasons []string

	if card.OverallScore < g.scoreThreshold {
		reasons = append(reasons, fmt.Sprintf(
			"overall score %.1f below review threshold %.1f", card.OverallScore, g.scoreThreshold))
	}
	for _, gap := range gaps {
		if gap.RiskLevel == domain.RiskHigh {
			reasons = append(reasons, "high-risk gap: "+gap.Title)
		}
	}
	reasons = append(reasons, reviewReasons...)

	if len(reasons) == 0 {
		return nil
	}

	return &domain.ReviewFlag{
		RunID:          runID,
		Reason:         strings.Join(reasons, "; "),
		RequiredAction: "manual-review",
		State:          domain.ReviewPendingReview,
		CreatedAt:      time.Now().UTC(),
	}
}

// ReviewManager implements the human-in-the-loop adjudication
// boundary over the review store.
type ReviewManager struct {
	store driven.ReviewStore
	clock func() time.Time
}

var _ driving.ReviewService = (*ReviewManager)(nil)

// ReviewManagerOption configures a ReviewManager.
type ReviewManagerOption func(*ReviewManager)

// WithClock overrides the feedback timestamp source.
func WithClock(clock func() time.Time) ReviewManagerOption {
	return func(m *ReviewManager) {
		m.clock = clock
	}
}

// NewReviewManager creates the review service.
func NewReviewManager(store driven.ReviewStore, opts ...ReviewManagerOption) *ReviewManager {
	m := &ReviewManager{
		store: store,
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListPending returns all runs awaiting expert review.
func (m *ReviewManager) ListPending(ctx context.Context) ([]domain.ReviewFlag, error) {
	flags, err := m.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending reviews: %w", err)
	}
	return flags, nil
}

// SubmitReview records one expert decision and moves the flag to the
// reviewed state. The decision joins the flag's append-only feedback
// history; the evaluation result itself is never rewritten.
func (m *ReviewManager) SubmitReview(
	ctx context.Context,
	runID string,
	decision domain.ReviewDecision,
) (*domain.ReviewFlag, error) {
	if runID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	flag, err := m.store.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("loading review flag for run %s: %w", runID, err)
	}

	feedback := domain.ExpertFeedback{Decision: decision, RecordedAt: m.clock()}
	if err := m.store.AppendFeedback(ctx, runID, feedback); err != nil {
		return nil, fmt.Errorf("recording feedback for run %s: %w", runID, err)
	}

	flag.State = domain.ReviewReviewed
	flag.Feedback = append(flag.Feedback, feedback)
	if err := m.store.Save(ctx, *flag); err != nil {
		return nil, fmt.Errorf("saving reviewed flag for run %s: %w", runID, err)
	}

	logger.Info("Run %s reviewed: %s by %s", runID, decision.Kind, decision.Reviewer)
	return flag, nil
}
