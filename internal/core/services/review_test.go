package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regready/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/regready/internal/core/domain"
)

func TestReviewGateAutoResolvesCleanRun(t *testing.T) {
	gate := NewReviewGate(90)
	card := domain.Scorecard{OverallScore: 95}

	assert.Nil(t, gate.Check("run-1", card, nil, nil))
}

func TestReviewGateFlagsLowScore(t *testing.T) {
	gate := NewReviewGate(90)
	card := domain.Scorecard{OverallScore: 72.5}

	flag := gate.Check("run-1", card, nil, nil)
	require.NotNil(t, flag)
	assert.Equal(t, domain.ReviewPendingReview, flag.State)
	assert.Equal(t, "manual-review", flag.RequiredAction)
	assert.Contains(t, flag.Reason, "72.5")
	assert.False(t, flag.CreatedAt.IsZero())
}

func TestReviewGateFlagsHighRiskGapDespiteScore(t *testing.T) {
	gate := NewReviewGate(90)
	card := domain.Scorecard{OverallScore: 95}
	gaps := []domain.Gap{{Title: "Data stored outside Qatar", RiskLevel: domain.RiskHigh}}

	flag := gate.Check("run-1", card, gaps, nil)
	require.NotNil(t, flag)
	assert.Contains(t, flag.Reason, "Data stored outside Qatar")
}

func TestReviewGateFlagsLowConfidenceCandidates(t *testing.T) {
	gate := NewReviewGate(90)
	card := domain.Scorecard{OverallScore: 95}
	reasons := []string{"semantic check for x:3.1.1 scored confidence 0.20 below floor 0.55"}

	flag := gate.Check("run-1", card, nil, reasons)
	require.NotNil(t, flag)
	assert.Contains(t, flag.Reason, "3.1.1")
}

func TestSubmitReviewMovesFlagToReviewed(t *testing.T) {
	store := memory.NewReviewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.ReviewFlag{
		RunID:          "run-1",
		Reason:         "low score",
		RequiredAction: "manual-review",
		State:          domain.ReviewPendingReview,
	}))

	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	manager := NewReviewManager(store, WithClock(func() time.Time { return fixed }))

	decision := domain.ReviewDecision{Kind: domain.DecisionAffirm, Reviewer: "expert-1"}
	flag, err := manager.SubmitReview(ctx, "run-1", decision)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewReviewed, flag.State)
	require.Len(t, flag.Feedback, 1)
	assert.Equal(t, fixed, flag.Feedback[0].RecordedAt)

	pending, err := manager.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmitReviewAppendsToHistory(t *testing.T) {
	store := memory.NewReviewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.ReviewFlag{
		RunID: "run-1", State: domain.ReviewPendingReview, RequiredAction: "manual-review",
	}))

	manager := NewReviewManager(store)
	_, err := manager.SubmitReview(ctx, "run-1", domain.ReviewDecision{
		Kind: domain.DecisionDismiss, GapID: "gap-1", Reviewer: "expert-1",
	})
	require.NoError(t, err)

	flag, err := manager.SubmitReview(ctx, "run-1", domain.ReviewDecision{
		Kind: domain.DecisionOverrideRisk, GapID: "gap-2",
		NewRiskLevel: domain.RiskLow, Reviewer: "expert-2",
	})
	require.NoError(t, err)
	require.Len(t, flag.Feedback, 2)
	assert.Equal(t, domain.DecisionDismiss, flag.Feedback[0].Decision.Kind)
	assert.Equal(t, domain.DecisionOverrideRisk, flag.Feedback[1].Decision.Kind)
}

func TestSubmitReviewValidation(t *testing.T) {
	manager := NewReviewManager(memory.NewReviewStore())
	ctx := context.Background()

	_, err := manager.SubmitReview(ctx, "", domain.ReviewDecision{Kind: domain.DecisionAffirm})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = manager.SubmitReview(ctx, "run-1", domain.ReviewDecision{Kind: "escalate"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = manager.SubmitReview(ctx, "run-1", domain.ReviewDecision{Kind: domain.DecisionDismiss})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmitReviewUnknownRun(t *testing.T) {
	manager := NewReviewManager(memory.NewReviewStore())

	_, err := manager.SubmitReview(context.Background(), "ghost", domain.ReviewDecision{
		Kind: domain.DecisionAffirm, Reviewer: "expert-1",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
