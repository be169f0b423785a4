package domain

import "time"

// ReviewState is the review gate state for an evaluation run.
type ReviewState string

// Review gate states. Transitions are Auto-Resolved → Pending-Review →
// Reviewed; Reviewed is entered only via an explicit expert decision.
const (
	ReviewAutoResolved  ReviewState = "auto-resolved"
	ReviewPendingReview ReviewState = "pending-review"
	ReviewReviewed      ReviewState = "reviewed"
)

// IsValid returns true if the review state is recognised.
func (s ReviewState) IsValid() bool {
	switch s {
	case ReviewAutoResolved, ReviewPendingReview, ReviewReviewed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ReviewState) String() string {
	return string(s)
}

// DecisionKind is the kind of expert decision on a flagged run.
type DecisionKind string

// Available decision kinds.
const (
	// DecisionAffirm confirms the automated outcome as-is.
	DecisionAffirm DecisionKind = "affirm"

	// DecisionOverrideRisk changes the risk level of one gap.
	DecisionOverrideRisk DecisionKind = "override-risk"

	// DecisionDismiss dismisses one gap as a false positive.
	DecisionDismiss DecisionKind = "dismiss"
)

// IsValid returns true if the decision kind is recognised.
func (k DecisionKind) IsValid() bool {
	switch k {
	case DecisionAffirm, DecisionOverrideRisk, DecisionDismiss:
		return true
	default:
		return false
	}
}

// ReviewDecision is one expert adjudication of a flagged run.
type ReviewDecision struct {
	// Kind is the decision taken.
	Kind DecisionKind

	// GapID identifies the gap for override-risk and dismiss decisions.
	GapID string

	// NewRiskLevel is the replacement severity for override-risk.
	NewRiskLevel RiskLevel

	// Reviewer identifies the expert.
	Reviewer string

	// Notes is free-form adjudication rationale.
	Notes string
}

// Validate checks decision invariants.
func (d ReviewDecision) Validate() error {
	if !d.Kind.IsValid() {
		return ErrInvalidInput
	}
	if d.Kind == DecisionOverrideRisk && !d.NewRiskLevel.IsValid() {
		return ErrInvalidInput
	}
	if (d.Kind == DecisionOverrideRisk || d.Kind == DecisionDismiss) && d.GapID == "" {
		return ErrInvalidInput
	}
	return nil
}

// ExpertFeedback is one recorded decision with its timestamp. Feedback
// is the system's sole supervised-learning signal and is never deleted.
type ExpertFeedback struct {
	// Decision is the adjudication taken.
	Decision ReviewDecision

	// RecordedAt is when the decision was recorded.
	RecordedAt time.Time
}

// ReviewFlag marks an evaluation run for human adjudication. Flags are
// never deleted; together with their append-only feedback history they
// form the audit trail.
type ReviewFlag struct {
	// RunID is the flagged evaluation run.
	RunID string

	// Reason explains why the flagging criteria tripped.
	Reason string

	// RequiredAction is always "manual-review".
	RequiredAction string

	// State is the current gate state.
	State ReviewState

	// Feedback is the append-only expert decision history.
	Feedback []ExpertFeedback

	// CreatedAt is when the flag was raised.
	CreatedAt time.Time
}
