package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// stubScorer returns canned entailment results keyed by obligation text.
type stubScorer struct {
	results map[string]driven.EntailmentResult
}

func (s *stubScorer) Score(_ context.Context, _, obligation string) (driven.EntailmentResult, error) {
	if result, ok := s.results[obligation]; ok {
		return result, nil
	}
	return driven.EntailmentResult{Entailed: true, Confidence: 1}, nil
}

var _ driven.EntailmentScorer = (*stubScorer)(nil)

func testSnapshot() *CorpusSnapshot {
	articles := []domain.RegulatoryArticle{
		{
			ID:         "art-residency",
			SourceDoc:  "qcb_aml_data_protection_regulation",
			ArticleRef: "2.1.1",
			Category:   domain.CategoryDataResidency,
			Text:       "Customer data must be stored on servers physically located within the State of Qatar.",
		},
		{
			ID:         "art-capital",
			SourceDoc:  "qcb_fintech_licensing_pathways",
			ArticleRef: "1.2.2",
			Category:   domain.CategoryLicensing,
			Text:       "Minimum regulatory capital of QAR 7,500,000 must be maintained at all times.",
		},
		{
			ID:         "art-reporting",
			SourceDoc:  "qcb_fintech_licensing_pathways",
			ArticleRef: "3.1.1",
			Category:   domain.CategoryReporting,
			Text:       "Quarterly prudential returns must be submitted within thirty days of period end.",
		},
	}
	snapshot := &CorpusSnapshot{
		Revision: "testrev",
		Articles: make(map[string]domain.RegulatoryArticle, len(articles)),
	}
	for _, article := range articles {
		snapshot.Articles[article.ID] = article
	}
	return snapshot
}

// compliantCorporate documents a compliance officer so the governance
// rule stays quiet in tests exercising other rules.
func compliantCorporate() domain.CorporateStructure {
	return domain.CorporateStructure{
		Roles: map[domain.RoleType]string{domain.RoleComplianceOfficer: "F. Rahman"},
	}
}

func newTestClassifier(t *testing.T, scorer driven.EntailmentScorer) *Classifier {
	t.Helper()
	if scorer == nil {
		scorer = &stubScorer{}
	}
	classifier, err := NewClassifier(DefaultRules(), domain.DefaultRiskTable(), scorer, 0.55)
	require.NoError(t, err)
	return classifier
}

func TestNewClassifierRejectsMalformedRule(t *testing.T) {
	rules := []domain.ClassificationRule{{
		ArticleRef: "9.9.9",
		Category:   domain.CategoryAML,
		Kind:       domain.RuleStructured,
	}}
	_, err := NewClassifier(rules, domain.DefaultRiskTable(), &stubScorer{}, 0.55)
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestClassifyCapitalShortfall(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Financials: []domain.FinancialMetric{
			{Type: domain.MetricCapital, Value: 5_000_000, Currency: "QAR", Confidence: 0.9},
		},
		Corporate: compliantCorporate(),
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	require.Len(t, result.Gaps, 1)

	gap := result.Gaps[0]
	assert.Equal(t, domain.CategoryLicensing, gap.Category)
	assert.Equal(t, domain.RiskHigh, gap.RiskLevel)
	assert.Equal(t, domain.GapOriginStructured, gap.Origin)
	assert.Equal(t, "qcb_fintech_licensing_pathways:1.2.2", gap.ArticleRef)
	assert.Contains(t, gap.ImpactText, "QAR 5,000,000")
	assert.Contains(t, gap.ImpactText, "QAR 2,500,000 below")
}

func TestClassifyCapitalKeepsHighestConfidenceFigure(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Financials: []domain.FinancialMetric{
			{Type: domain.MetricCapital, Value: 1_000_000, Confidence: 0.3},
			{Type: domain.MetricCapital, Value: 8_000_000, Confidence: 0.9},
		},
		Corporate: compliantCorporate(),
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	assert.Empty(t, result.Gaps)
}

func TestClassifyTransactionCapAdvisory(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Financials: []domain.FinancialMetric{
			{Type: domain.MetricTransactionCap, Value: 45_000, Confidence: 0.8},
		},
		Corporate: compliantCorporate(),
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	assert.Empty(t, result.Gaps)
	require.Len(t, result.Advisories, 1)
	assert.Equal(t, domain.CategoryAML, result.Advisories[0].Category)
	assert.Contains(t, result.Advisories[0].Description, "QAR 45,000")
}

func TestClassifyTransactionCapExceeded(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Financials: []domain.FinancialMetric{
			{Type: domain.MetricTransactionCap, Value: 60_000, Confidence: 0.8},
		},
		Corporate: compliantCorporate(),
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, domain.RiskMedium, result.Gaps[0].RiskLevel)
	assert.Empty(t, result.Advisories)
}

func TestClassifyDataResidencyViolation(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Corporate: compliantCorporate(),
		DataStorage: &domain.DataStorage{
			Provider: "aws",
			Location: "AWS regions in Ireland and Singapore",
		},
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	require.Len(t, result.Gaps, 1)

	gap := result.Gaps[0]
	assert.Equal(t, domain.CategoryDataResidency, gap.Category)
	assert.Equal(t, domain.RiskHigh, gap.RiskLevel)
	assert.Contains(t, gap.ImpactText, "ireland")
	assert.Contains(t, gap.ImpactText, "singapore")
}

func TestClassifyDataResidencyInQatarCompliant(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Corporate:   compliantCorporate(),
		DataStorage: &domain.DataStorage{Location: "data centre in Doha, Qatar"},
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	assert.Empty(t, result.Gaps)
}

func TestClassifyMissingComplianceOfficer(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Corporate: domain.CorporateStructure{
			Roles: map[domain.RoleType]string{domain.RoleCEO: "A. Al-Thani"},
		},
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, domain.CategoryGovernance, result.Gaps[0].Category)

	entities.Corporate.Roles[domain.RoleComplianceOfficer] = "F. Rahman"
	result, err = classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	assert.Empty(t, result.Gaps)
}

func TestClassifySemanticGapForUncoveredArticle(t *testing.T) {
	snapshot := testSnapshot()
	scorer := &stubScorer{results: map[string]driven.EntailmentResult{
		snapshot.Articles["art-reporting"].Text: {Entailed: false, Confidence: 0.8},
	}}
	classifier := newTestClassifier(t, scorer)

	entities := domain.DocumentEntities{
		Corporate: domain.CorporateStructure{
			Roles: map[domain.RoleType]string{domain.RoleComplianceOfficer: "F. Rahman"},
		},
	}
	mappings := []domain.Mapping{
		{StartupChunkID: "chunk-1", ArticleID: "art-reporting", SimilarityScore: 0.7, EvidenceSnippet: "We will publish an annual report.", PageNumber: 3},
		{StartupChunkID: "chunk-2", ArticleID: "art-residency", SimilarityScore: 0.6, EvidenceSnippet: "Data lives in Qatar.", PageNumber: 1},
	}

	result, err := classifier.Classify(context.Background(), "run-1", entities, mappings, snapshot)
	require.NoError(t, err)
	require.Len(t, result.Gaps, 1)

	gap := result.Gaps[0]
	assert.Equal(t, domain.GapOriginSemantic, gap.Origin)
	assert.Equal(t, domain.CategoryReporting, gap.Category)
	assert.Equal(t, domain.RiskMedium, gap.RiskLevel)
	assert.Equal(t, "qcb_fintech_licensing_pathways:3.1.1", gap.ArticleRef)
	assert.Contains(t, gap.ImpactText, "page 3")
}

func TestClassifyStructuredRuleSuppressesSemanticCheck(t *testing.T) {
	snapshot := testSnapshot()
	scorer := &stubScorer{results: map[string]driven.EntailmentResult{
		snapshot.Articles["art-residency"].Text: {Entailed: false, Confidence: 0.9},
	}}
	classifier := newTestClassifier(t, scorer)

	mappings := []domain.Mapping{
		{StartupChunkID: "chunk-1", ArticleID: "art-residency", SimilarityScore: 0.6, EvidenceSnippet: "Data lives somewhere.", PageNumber: 1},
	}

	// Article 2.1.1 has a structured rule; the entailment result for it
	// must never produce a second, semantic gap.
	entities := domain.DocumentEntities{Corporate: compliantCorporate()}
	result, err := classifier.Classify(context.Background(), "run-1", entities, mappings, snapshot)
	require.NoError(t, err)
	assert.Empty(t, result.Gaps)
}

func TestClassifyLowConfidenceGoesToReview(t *testing.T) {
	snapshot := testSnapshot()
	scorer := &stubScorer{results: map[string]driven.EntailmentResult{
		snapshot.Articles["art-reporting"].Text: {Entailed: false, Confidence: 0.2},
	}}
	classifier := newTestClassifier(t, scorer)

	mappings := []domain.Mapping{
		{StartupChunkID: "chunk-1", ArticleID: "art-reporting", SimilarityScore: 0.7, EvidenceSnippet: "Reports exist.", PageNumber: 2},
	}

	entities := domain.DocumentEntities{Corporate: compliantCorporate()}
	result, err := classifier.Classify(context.Background(), "run-1", entities, mappings, snapshot)
	require.NoError(t, err)
	assert.Empty(t, result.Gaps)
	require.Len(t, result.ReviewReasons, 1)
	assert.Contains(t, result.ReviewReasons[0], "3.1.1")
	assert.Contains(t, result.ReviewReasons[0], "0.20")
}

func TestClassifyDeterministicIDsAndOrder(t *testing.T) {
	classifier := newTestClassifier(t, nil)
	entities := domain.DocumentEntities{
		Financials: []domain.FinancialMetric{
			{Type: domain.MetricCapital, Value: 5_000_000, Confidence: 0.9},
		},
		DataStorage: &domain.DataStorage{Location: "hosted in Germany"},
	}

	first, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)
	second, err := classifier.Classify(context.Background(), "run-1", entities, nil, testSnapshot())
	require.NoError(t, err)

	require.Len(t, first.Gaps, 3)
	assert.Equal(t, first.Gaps, second.Gaps)
	assert.Equal(t, domain.CategoryGovernance, first.Gaps[0].Category)
	assert.Equal(t, domain.CategoryDataResidency, first.Gaps[1].Category)
	assert.Equal(t, domain.CategoryLicensing, first.Gaps[2].Category)

	other, err := classifier.Classify(context.Background(), "run-2", entities, nil, testSnapshot())
	require.NoError(t, err)
	assert.NotEqual(t, first.Gaps[0].ID, other.Gaps[0].ID)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "7,500,000", formatAmount(7_500_000))
	assert.Equal(t, "45,000", formatAmount(45_000))
	assert.Equal(t, "999", formatAmount(999))
	assert.Equal(t, "-2,500", formatAmount(-2_500))
}
