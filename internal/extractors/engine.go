package extractors

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.EntityExtractor = (*Engine)(nil)

// Confidence weights per extractor family when computing the overall
// document confidence.
const (
	activityWeight  = 0.40
	financialWeight = 0.35
	corporateWeight = 0.25
)

// Engine coordinates the specialised extractors over one text.
type Engine struct {
	activity  *ActivityExtractor
	financial *FinancialExtractor
	corporate *CorporateExtractor
	storage   *DataStorageExtractor
}

// NewEngine creates the extraction engine with all built-in extractors.
func NewEngine() *Engine {
	return &Engine{
		activity:  NewActivityExtractor(),
		financial: NewFinancialExtractor(),
		corporate: NewCorporateExtractor(),
		storage:   NewDataStorageExtractor(),
	}
}

// Extract runs every extractor over text and folds the results into
// one entity set with a weighted overall confidence.
func (e *Engine) Extract(ctx context.Context, text string) (domain.DocumentEntities, error) {
	if err := ctx.Err(); err != nil {
		return domain.DocumentEntities{}, err
	}

	entities := domain.DocumentEntities{
		Activities:  e.activity.Extract(text),
		Financials:  e.financial.Extract(text),
		Corporate:   e.corporate.Extract(text),
		DataStorage: e.storage.Extract(text),
		Policies:    ExtractPolicies(text),
	}
	entities.Confidence = overallConfidence(entities)
	return entities, nil
}

// overallConfidence is the weighted mean of per-family confidences,
// counting only families that produced results.
func overallConfidence(entities domain.DocumentEntities) float64 {
	var sum, weight float64

	if conf := maxActivityConfidence(entities.Activities); conf > 0 {
		sum += conf * activityWeight
		weight += activityWeight
	}
	if conf := maxFinancialConfidence(entities.Financials); conf > 0 {
		sum += conf * financialWeight
		weight += financialWeight
	}
	if len(entities.Corporate.Roles) > 0 || entities.Corporate.EntityType != "" {
		sum += 0.9 * corporateWeight
		weight += corporateWeight
	}

	if weight == 0 {
		return 0
	}
	return sum / weight
}

func maxActivityConfidence(activities []domain.BusinessActivity) float64 {
	var max float64
	for _, a := range activities {
		if a.Confidence > max {
			max = a.Confidence
		}
	}
	return max
}

func maxFinancialConfidence(metrics []domain.FinancialMetric) float64 {
	var max float64
	for _, m := range metrics {
		if m.Confidence > max {
			max = m.Confidence
		}
	}
	return max
}
