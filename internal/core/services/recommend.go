package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/logger"
)

// Matcher ranks catalog resources against classified gaps. Ranking is
// tag overlap first, then resource priority, then resource ID, so a
// fixed catalog and gap set always yields the same recommendations.
type Matcher struct {
	catalog driven.ResourceCatalog
	topN    int
}

// NewMatcher creates a recommendation matcher returning at most topN
// resources per gap.
func NewMatcher(catalog driven.ResourceCatalog, topN int) *Matcher {
	if topN <= 0 {
		topN = 3
	}
	return &Matcher{catalog: catalog, topN: topN}
}

// Recommend matches resources to every gap and advisory. Resources
// with no tag overlap are never recommended.
func (m *Matcher) Recommend(
	ctx context.Context,
	gaps []domain.Gap,
	advisories []domain.Advisory,
) ([]domain.Recommendation, error) {
	resources, err := m.catalog.Resources(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading resource catalog: %w", err)
	}

	var recs []domain.Recommendation
	for _, gap := range gaps {
		text := strings.ToLower(gap.Title + " " + gap.Description + " " + gap.ImpactText)
		recs = append(recs, m.matchOne(gap.ID, gap.Category, text, resources)...)
	}
	for _, advisory := range advisories {
		text := strings.ToLower(advisory.Description)
		recs = append(recs, m.matchOne(advisory.ID, advisory.Category, text, resources)...)
	}

	logger.Info("Matched %d recommendations for %d gaps and %d advisories",
		len(recs), len(gaps), len(advisories))
	return recs, nil
}

// matchOne ranks the catalog for a single gap or advisory.
func (m *Matcher) matchOne(
	targetID string,
	category domain.Category,
	text string,
	resources []domain.Resource,
) []domain.Recommendation {
	type scored struct {
		resource  domain.Resource
		relevance float64
	}

	//nolint:prealloc
	var candidates []scored
	for _, resource := range resources {
		relevance := tagRelevance(resource.Tags, category, text)
		if relevance == 0 {
			continue
		}
		candidates = append(candidates, scored{resource: resource, relevance: relevance})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
		if a.resource.Priority != b.resource.Priority {
			return a.resource.Priority > b.resource.Priority
		}
		return a.resource.ID < b.resource.ID
	})

	if len(candidates) > m.topN {
		candidates = candidates[:m.topN]
	}

	recs := make([]domain.Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		recs = append(recs, domain.Recommendation{
			GapID:          targetID,
			ResourceID:     candidate.resource.ID,
			ResourceType:   candidate.resource.Type,
			RelevanceScore: candidate.relevance,
		})
	}
	return recs
}

// tagRelevance counts the resource tags a gap matches. The category
// tag counts once; any other tag counts when all of its hyphenated
// words appear in the gap text.
func tagRelevance(tags []string, category domain.Category, text string) float64 {
	var relevance float64
	for _, tag := range tags {
		if tag == category.String() {
			relevance++
			continue
		}
		words := strings.Split(tag, "-")
		matched := true
		for _, word := range words {
			if !strings.Contains(text, word) {
				matched = false
				break
			}
		}
		if matched {
			relevance++
		}
	}
	return relevance
}
