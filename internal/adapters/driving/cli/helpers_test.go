package cli

import (
	"context"

	configfile "github.com/custodia-labs/regready/internal/adapters/driven/config/file"
	"github.com/custodia-labs/regready/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/regready/internal/adapters/driven/entailment/lexical"
	memstore "github.com/custodia-labs/regready/internal/adapters/driven/storage/memory"
	vecmem "github.com/custodia-labs/regready/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/services"
	"github.com/custodia-labs/regready/internal/extractors"
	"github.com/custodia-labs/regready/internal/normalisers"
	"github.com/custodia-labs/regready/internal/postprocessors/chunker"
)

type staticCatalog struct {
	resources []domain.Resource
}

func (c *staticCatalog) Resources(context.Context) ([]domain.Resource, error) {
	return c.resources, nil
}

func testArticles() []domain.RegulatoryArticle {
	return []domain.RegulatoryArticle{
		{
			ID:         "art-residency",
			SourceDoc:  "qcb_data_residency",
			SectionRef: "SECTION 2",
			ArticleRef: "2.1.1",
			Category:   domain.CategoryDataResidency,
			Text:       "Customer data must be stored and processed within Qatar.",
		},
		{
			ID:         "art-officer",
			SourceDoc:  "qcb_governance",
			SectionRef: "SECTION 2",
			ArticleRef: "2.2.1",
			Category:   domain.CategoryGovernance,
			Text:       "A licensed firm must appoint a dedicated compliance officer.",
		},
		{
			ID:         "art-capital",
			SourceDoc:  "qcb_licensing",
			SectionRef: "SECTION 1",
			ArticleRef: "1.2.2",
			Category:   domain.CategoryLicensing,
			Text:       "Applicants must hold paid-up capital of at least QAR 7,500,000.",
		},
		{
			ID:         "art-cdd",
			SourceDoc:  "qcb_aml",
			SectionRef: "SECTION 1",
			ArticleRef: "1.1.2",
			Category:   domain.CategoryAML,
			Text:       "Single transactions must not exceed QAR 50,000 without enhanced due diligence.",
		},
	}
}

// testReviewStore backs the injected review service so tests can seed
// pending flags directly.
var testReviewStore *memstore.ReviewStore

// newEmptyCorpusManager returns a manager with no corpus built.
func newEmptyCorpusManager() *services.CorpusManager {
	return services.NewCorpusManager(memstore.NewCorpusStore(), local.New(), vecmem.Factory, chunker.New())
}

// setupTestServices wires in-memory services into the package-level
// service variables and returns a cleanup that restores them.
// PersistentPreRunE skips initServices while evaluationService is set.
func setupTestServices() func() {
	oldConfig := appConfig
	oldEvaluation := evaluationService
	oldReview := reviewService
	oldCorpus := corpusManager

	cfg := configfile.DefaultConfig()
	appConfig = cfg

	embedder := local.New()
	processor := chunker.New()
	runStore := memstore.NewRunStore()
	reviewStore := memstore.NewReviewStore()
	testReviewStore = reviewStore

	manager := services.NewCorpusManager(memstore.NewCorpusStore(), embedder, vecmem.Factory, processor)
	if _, err := manager.Rebuild(context.Background(), testArticles()); err != nil {
		panic(err)
	}
	corpusManager = manager

	classifier, err := services.NewClassifier(
		services.DefaultRules(), cfg.DomainRiskTable(),
		lexical.New(), cfg.Classifier.ConfidenceFloor,
	)
	if err != nil {
		panic(err)
	}

	calculator, err := services.NewCalculator(cfg.DomainWeights(), cfg.DomainPenalties())
	if err != nil {
		panic(err)
	}

	catalog := &staticCatalog{resources: []domain.Resource{
		{ID: "prog-aml-workshop", Type: domain.ResourceProgram, Name: "AML Controls Workshop", Tags: []string{"aml"}, Priority: 10},
		{ID: "exp-licensing-advisor", Type: domain.ResourceExpert, Name: "Licensing Advisor", Tags: []string{"licensing"}, Priority: 8},
	}}

	evaluationService = services.NewEvaluator(
		runStore,
		reviewStore,
		normalisers.DefaultRegistry(),
		processor,
		extractors.NewEngine(),
		embedder,
		manager,
		classifier,
		calculator,
		services.NewMatcher(catalog, cfg.Recommendation.TopN),
		services.NewReviewGate(cfg.Review.ScoreThreshold),
		services.WithSimilarityThreshold(0),
	)

	reviewService = services.NewReviewManager(reviewStore)

	return func() {
		testReviewStore = nil
		appConfig = oldConfig
		evaluationService = oldEvaluation
		reviewService = oldReview
		corpusManager = oldCorpus
	}
}
