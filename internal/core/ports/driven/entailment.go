package driven

import "context"

// EntailmentResult is the outcome of scoring a (statement, obligation)
// pair.
type EntailmentResult struct {
	// Entailed reports whether the statement satisfies the obligation.
	Entailed bool

	// Confidence is the classification confidence in [0,1]. Candidates
	// below a rule's confidence floor go to the review gate instead of
	// being auto-classified.
	Confidence float64
}

// EntailmentScorer approximates whether a mapped startup statement
// satisfies the obligation implied by an article's text.
//
// Scoring must be deterministic for fixed inputs: the gap set of an
// evaluation run never varies across identical re-runs.
type EntailmentScorer interface {
	// Score classifies the statement against the obligation.
	Score(ctx context.Context, statement, obligation string) (EntailmentResult, error)
}
