package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regready/internal/core/domain"
)

func TestNewCalculatorRejectsBadWeights(t *testing.T) {
	_, err := NewCalculator(map[domain.Category]float64{
		domain.CategoryAML: 0.5,
	}, nil)
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "scorecard.weights", cfgErr.Field)
}

func TestScoreNoGapsIsPerfect(t *testing.T) {
	calc, err := NewCalculator(domain.DefaultWeights(), domain.DefaultPenaltyTable())
	require.NoError(t, err)

	card := calc.Score(nil)
	assert.InDelta(t, 100, card.OverallScore, 1e-9)
	for category, score := range card.PerCategory {
		assert.InDelta(t, 100, score, 1e-9, "category %s", category)
	}
	assert.Empty(t, card.Penalties)
}

func TestScoreAppliesWeightedPenalties(t *testing.T) {
	calc, err := NewCalculator(domain.DefaultWeights(), domain.DefaultPenaltyTable())
	require.NoError(t, err)

	gaps := []domain.Gap{
		{ID: "g1", Category: domain.CategoryDataResidency, RiskLevel: domain.RiskHigh},
		{ID: "g2", Category: domain.CategoryAML, RiskLevel: domain.RiskMedium},
	}
	card := calc.Score(gaps)

	assert.InDelta(t, 70, card.PerCategory[domain.CategoryDataResidency], 1e-9)
	assert.InDelta(t, 85, card.PerCategory[domain.CategoryAML], 1e-9)
	assert.InDelta(t, 100, card.PerCategory[domain.CategoryLicensing], 1e-9)

	// 70*0.30 + 85*0.20 + 100*0.20 + 100*0.15 + 100*0.15 = 88
	assert.InDelta(t, 88, card.OverallScore, 1e-9)
	require.Len(t, card.Penalties, 2)
}

func TestScoreCategoryFloorsAtZero(t *testing.T) {
	calc, err := NewCalculator(domain.DefaultWeights(), domain.DefaultPenaltyTable())
	require.NoError(t, err)

	gaps := make([]domain.Gap, 4)
	for i := range gaps {
		gaps[i] = domain.Gap{
			ID:        string(rune('a' + i)),
			Category:  domain.CategoryLicensing,
			RiskLevel: domain.RiskHigh,
		}
	}
	card := calc.Score(gaps)
	assert.InDelta(t, 0, card.PerCategory[domain.CategoryLicensing], 1e-9)
	assert.InDelta(t, 80, card.OverallScore, 1e-9)
}

func TestScoreUnweightedCategoryRecordedNotScored(t *testing.T) {
	calc, err := NewCalculator(domain.DefaultWeights(), domain.DefaultPenaltyTable())
	require.NoError(t, err)

	// Documentation carries no weight in the default table.
	card := calc.Score([]domain.Gap{
		{ID: "g1", Category: domain.CategoryDocumentation, RiskLevel: domain.RiskLow},
	})
	assert.InDelta(t, 100, card.OverallScore, 1e-9)
	require.Len(t, card.Penalties, 1)
	assert.Equal(t, domain.CategoryDocumentation, card.Penalties[0].Category)
}

func TestScorePenaltyOrderDeterministic(t *testing.T) {
	calc, err := NewCalculator(domain.DefaultWeights(), domain.DefaultPenaltyTable())
	require.NoError(t, err)

	gaps := []domain.Gap{
		{ID: "z", Category: domain.CategoryLicensing, RiskLevel: domain.RiskLow},
		{ID: "a", Category: domain.CategoryLicensing, RiskLevel: domain.RiskHigh},
		{ID: "m", Category: domain.CategoryAML, RiskLevel: domain.RiskMedium},
	}
	card := calc.Score(gaps)

	require.Len(t, card.Penalties, 3)
	assert.Equal(t, "m", card.Penalties[0].GapID)
	assert.Equal(t, "a", card.Penalties[1].GapID)
	assert.Equal(t, "z", card.Penalties[2].GapID)
}
