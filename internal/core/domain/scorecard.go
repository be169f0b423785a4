package domain

import (
	"fmt"
	"math"
)

// WeightEpsilon is the tolerance when validating that category weights
// sum to 1.0.
const WeightEpsilon = 1e-6

// Scorecard is the weighted aggregate summarising compliance posture.
// It is computed once per evaluation run and immutable once produced;
// re-runs supersede, never mutate.
type Scorecard struct {
	// OverallScore is the weighted readiness score in [0,100].
	OverallScore float64

	// PerCategory holds each category's score in [0,100].
	PerCategory map[Category]float64

	// Weights holds the category weights used, summing to 1.0.
	Weights map[Category]float64

	// Penalties lists every per-gap deduction so the final number can
	// be reconstructed by hand.
	Penalties []GapPenalty
}

// GapPenalty is one deduction applied while scoring.
type GapPenalty struct {
	// GapID is the gap that caused the deduction.
	GapID string

	// Category is the category the deduction applied to.
	Category Category

	// RiskLevel is the gap's severity.
	RiskLevel RiskLevel

	// Penalty is the points deducted from the category score.
	Penalty float64
}

// PenaltyTable maps risk levels to score deductions.
type PenaltyTable map[RiskLevel]float64

// DefaultPenaltyTable returns the built-in severity penalties.
func DefaultPenaltyTable() PenaltyTable {
	return PenaltyTable{
		RiskHigh:   30,
		RiskMedium: 15,
		RiskLow:    5,
	}
}

// DefaultWeights returns the built-in category weights. They sum to 1.0.
func DefaultWeights() map[Category]float64 {
	return map[Category]float64{
		CategoryDataResidency: 0.30,
		CategoryLicensing:     0.20,
		CategoryAML:           0.20,
		CategoryGovernance:    0.15,
		CategoryReporting:     0.15,
	}
}

// ValidateWeights checks that weights sum to 1.0 within WeightEpsilon
// and that no weight is negative. A violation is a ConfigurationError:
// fatal at startup, never silently defaulted.
func ValidateWeights(weights map[Category]float64) error {
	if len(weights) == 0 {
		return &ConfigurationError{Field: "scorecard.weights", Reason: "no categories configured"}
	}
	sum := 0.0
	for cat, w := range weights {
		if w < 0 {
			return &ConfigurationError{
				Field:  "scorecard.weights",
				Reason: fmt.Sprintf("negative weight %v for category %s", w, cat),
			}
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightEpsilon {
		return &ConfigurationError{
			Field:  "scorecard.weights",
			Reason: fmt.Sprintf("weights sum to %v, expected 1.0", sum),
		}
	}
	return nil
}
