// Package cli implements the regready command-line interface.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regready/internal/adapters/driven/catalog/file"
	configfile "github.com/custodia-labs/regready/internal/adapters/driven/config/file"
	"github.com/custodia-labs/regready/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/regready/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/regready/internal/adapters/driven/entailment/lexical"
	"github.com/custodia-labs/regready/internal/adapters/driven/storage/sqlite"
	vecmem "github.com/custodia-labs/regready/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/core/ports/driving"
	"github.com/custodia-labs/regready/internal/core/services"
	"github.com/custodia-labs/regready/internal/extractors"
	"github.com/custodia-labs/regready/internal/logger"
	"github.com/custodia-labs/regready/internal/normalisers"
	"github.com/custodia-labs/regready/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

// Services the commands run against. Wired in initServices; tests
// inject in-memory replacements.
var (
	appConfig         configfile.Config
	evaluationService driving.EvaluationService
	reviewService     driving.ReviewService
	corpusManager     *services.CorpusManager
	store             *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "regready",
	Short: "Regulatory readiness evaluation for fintech startups",
	Long: `regready evaluates a startup's business documents against the QCB
regulatory corpus: documents are chunked, embedded and mapped to
regulatory articles, gaps are classified and scored, and remediation
resources are recommended. Low-scoring or high-risk runs are held for
expert review.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if store != nil {
			store.Close()
			store = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.regready)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data", "", "data directory (default ~/.regready/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices builds the production wiring. Tests replace the service
// variables instead of calling this.
func initServices() error {
	if evaluationService != nil {
		return nil
	}

	cfg, err := configfile.Load(flagConfigDir)
	if err != nil {
		return err
	}
	appConfig = cfg

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	st, err := sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store = st

	processor := chunker.New(
		chunker.WithWindowSize(cfg.Chunker.Window),
		chunker.WithOverlap(cfg.Chunker.Overlap),
	)

	corpusManager = services.NewCorpusManager(st.CorpusStore(), embedder, vecmem.Factory, processor)

	classifier, err := services.NewClassifier(
		services.DefaultRules(), cfg.DomainRiskTable(),
		lexical.New(), cfg.Classifier.ConfidenceFloor,
	)
	if err != nil {
		return err
	}

	calculator, err := services.NewCalculator(cfg.DomainWeights(), cfg.DomainPenalties())
	if err != nil {
		return err
	}

	catalog, err := file.NewCatalog(cfg.Recommendation.CatalogPath)
	if err != nil {
		return err
	}

	evaluationService = services.NewEvaluator(
		st.RunStore(),
		st.ReviewStore(),
		normalisers.DefaultRegistry(),
		processor,
		extractors.NewEngine(),
		embedder,
		corpusManager,
		classifier,
		calculator,
		services.NewMatcher(catalog, cfg.Recommendation.TopN),
		services.NewReviewGate(cfg.Review.ScoreThreshold),
		services.WithTopK(cfg.Retrieval.TopK),
		services.WithSimilarityThreshold(cfg.Retrieval.SimilarityThreshold),
		services.WithWorkers(cfg.Retrieval.Workers),
		services.WithDedupScope(domain.DedupScope(cfg.Mapping.DedupScope)),
		services.WithMaxFileBytes(cfg.Ingest.MaxFileBytes),
		services.WithFileTimeout(time.Duration(cfg.Ingest.TimeoutSeconds)*time.Second),
		services.WithEmbedRetries(cfg.Embedding.MaxRetries),
	)

	reviewService = services.NewReviewManager(st.ReviewStore())
	return nil
}

// buildEmbedder selects the embedding provider from config.
func buildEmbedder(cfg configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            os.Getenv(cfg.Embedding.APIKeyEnv),
			Model:             cfg.Embedding.Model,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		})
	default:
		return local.New(local.WithDimensions(cfg.Embedding.Dimensions)), nil
	}
}
