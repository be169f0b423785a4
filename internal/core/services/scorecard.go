package services

import (
	"sort"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/logger"
)

// Calculator aggregates classified gaps into the weighted scorecard.
// Scoring is pure arithmetic over its inputs, so identical gap sets
// always produce identical scorecards.
type Calculator struct {
	weights   map[domain.Category]float64
	penalties domain.PenaltyTable
}

// NewCalculator creates a scorecard calculator. Weights must sum to
// 1.0; a violation is fatal, never silently defaulted.
func NewCalculator(weights map[domain.Category]float64, penalties domain.PenaltyTable) (*Calculator, error) {
	if err := domain.ValidateWeights(weights); err != nil {
		return nil, err
	}
	if len(penalties) == 0 {
		penalties = domain.DefaultPenaltyTable()
	}
	return &Calculator{weights: weights, penalties: penalties}, nil
}

// Score computes the scorecard for a gap set. Every weighted category
// starts at 100 and loses the penalty for each of its gaps, floored at
// zero; the overall score is the weighted sum. Gaps in categories
// without a weight still appear in the penalty breakdown but do not
// move the overall score.
func (c *Calculator) Score(gaps []domain.Gap) domain.Scorecard {
	card := domain.Scorecard{
		PerCategory: make(map[domain.Category]float64, len(c.weights)),
		Weights:     make(map[domain.Category]float64, len(c.weights)),
	}
	for category, weight := range c.weights {
		card.PerCategory[category] = 100
		card.Weights[category] = weight
	}

	for _, gap := range gaps {
		penalty := c.penalties[gap.RiskLevel]
		card.Penalties = append(card.Penalties, domain.GapPenalty{
			GapID:     gap.ID,
			Category:  gap.Category,
			RiskLevel: gap.RiskLevel,
			Penalty:   penalty,
		})
		if _, weighted := card.PerCategory[gap.Category]; !weighted {
			continue
		}
		score := card.PerCategory[gap.Category] - penalty
		if score < 0 {
			score = 0
		}
		card.PerCategory[gap.Category] = score
	}

	sort.Slice(card.Penalties, func(i, j int) bool {
		a, b := card.Penalties[i], card.Penalties[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.GapID < b.GapID
	})

	for category, weight := range c.weights {
		card.OverallScore += card.PerCategory[category] * weight
	}

	logger.Info("Scorecard: overall %.1f across %d categories, %d penalties",
		card.OverallScore, len(card.PerCategory), len(card.Penalties))
	return card
}
