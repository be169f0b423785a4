// Package file loads the engine configuration from a TOML file.
// Configuration is validated at load: a bad value is a
// ConfigurationError, never a silent fallback to defaults.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// Config is the full engine configuration.
type Config struct {
	Chunker        ChunkerConfig        `toml:"chunker"`
	Retrieval      RetrievalConfig      `toml:"retrieval"`
	Mapping        MappingConfig        `toml:"mapping"`
	Classifier     ClassifierConfig     `toml:"classifier"`
	Scorecard      ScorecardConfig      `toml:"scorecard"`
	Recommendation RecommendationConfig `toml:"recommendation"`
	Review         ReviewConfig         `toml:"review"`
	Ingest         IngestConfig         `toml:"ingest"`
	Embedding      EmbeddingConfig      `toml:"embedding"`
	Corpus         CorpusConfig         `toml:"corpus"`
}

// ChunkerConfig controls the sliding-window chunker.
type ChunkerConfig struct {
	// Window is the chunk size in characters.
	Window int `toml:"window"`

	// Overlap is the shared character count between adjacent chunks.
	// Must satisfy 0 <= Overlap < Window.
	Overlap int `toml:"overlap"`
}

// RetrievalConfig controls corpus retrieval.
type RetrievalConfig struct {
	// TopK is the number of nearest corpus chunks fetched per query.
	TopK int `toml:"top_k"`

	// SimilarityThreshold discards candidate mappings below it.
	SimilarityThreshold float64 `toml:"similarity_threshold"`

	// Workers bounds the per-run retrieval fan-out.
	Workers int `toml:"workers"`
}

// MappingConfig controls mapping dedup.
type MappingConfig struct {
	// DedupScope is per-document or per-run.
	DedupScope string `toml:"dedup_scope"`
}

// ClassifierConfig controls gap classification.
type ClassifierConfig struct {
	// ConfidenceFloor is the default semantic-rule floor. Candidates
	// scored below it go to the review gate.
	ConfidenceFloor float64 `toml:"confidence_floor"`

	// RiskTable overrides per-category default risk levels.
	RiskTable map[string]string `toml:"risk_table"`
}

// ScorecardConfig controls scoring.
type ScorecardConfig struct {
	// Weights are per-category weights; they must sum to 1.0.
	Weights map[string]float64 `toml:"weights"`

	// Penalties are per-risk-level score deductions.
	Penalties map[string]float64 `toml:"penalties"`
}

// RecommendationConfig controls remediation matching.
type RecommendationConfig struct {
	// TopN is the number of resources recommended per gap.
	TopN int `toml:"top_n"`

	// CatalogPath points at a JSON resource catalog. Empty uses the
	// embedded default catalog.
	CatalogPath string `toml:"catalog_path"`
}

// ReviewConfig controls the review gate.
type ReviewConfig struct {
	// ScoreThreshold flags runs whose overall score falls below it.
	ScoreThreshold float64 `toml:"score_threshold"`
}

// IngestConfig controls the submission boundary.
type IngestConfig struct {
	// MaxFileBytes rejects larger uploads.
	MaxFileBytes int64 `toml:"max_file_bytes"`

	// TimeoutSeconds bounds per-document extraction.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// EmbeddingConfig selects and tunes the embedding service.
type EmbeddingConfig struct {
	// Provider is "local" or "openai".
	Provider string `toml:"provider"`

	// Dimensions applies to the local provider.
	Dimensions int `toml:"dimensions"`

	// Model applies to the openai provider.
	Model string `toml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// RequestsPerSecond rate-limits API calls.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// MaxRetries bounds retry attempts on embedding failure.
	MaxRetries int `toml:"max_retries"`
}

// CorpusConfig locates the regulatory corpus sources.
type CorpusConfig struct {
	// Dir is the directory of regulatory markdown files.
	Dir string `toml:"dir"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	weights := make(map[string]float64)
	for category, weight := range domain.DefaultWeights() {
		weights[category.String()] = weight
	}
	penalties := make(map[string]float64)
	for level, penalty := range domain.DefaultPenaltyTable() {
		penalties[level.String()] = penalty
	}

	return Config{
		Chunker:   ChunkerConfig{Window: 800, Overlap: 150},
		Retrieval: RetrievalConfig{TopK: 5, SimilarityThreshold: 0.35, Workers: 4},
		Mapping:   MappingConfig{DedupScope: string(domain.DedupPerDocument)},
		Classifier: ClassifierConfig{
			ConfidenceFloor: 0.55,
		},
		Scorecard: ScorecardConfig{
			Weights:   weights,
			Penalties: penalties,
		},
		Recommendation: RecommendationConfig{TopN: 3},
		Review:         ReviewConfig{ScoreThreshold: 90},
		Ingest:         IngestConfig{MaxFileBytes: 10 << 20, TimeoutSeconds: 30},
		Embedding: EmbeddingConfig{
			Provider:          "local",
			Dimensions:        256,
			Model:             "text-embedding-3-small",
			APIKeyEnv:         "OPENAI_API_KEY",
			RequestsPerSecond: 5,
			MaxRetries:        3,
		},
	}
}

// Load reads the configuration at path, overlaying the defaults. If
// configDir is empty, defaults to ~/.regready/config.toml; a missing
// file yields the defaults.
func Load(configDir string) (Config, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".regready")
	}

	cfg := DefaultConfig()
	path := filepath.Join(configDir, "config.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks all configuration invariants. Any violation is fatal
// at startup.
func (c Config) Validate() error {
	if c.Chunker.Window <= 0 {
		return &domain.ConfigurationError{Field: "chunker.window", Reason: "must be positive"}
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Window {
		return &domain.ConfigurationError{
			Field:  "chunker.overlap",
			Reason: fmt.Sprintf("must satisfy 0 <= overlap < window, got %d with window %d", c.Chunker.Overlap, c.Chunker.Window),
		}
	}
	if c.Retrieval.TopK <= 0 {
		return &domain.ConfigurationError{Field: "retrieval.top_k", Reason: "must be positive"}
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		return &domain.ConfigurationError{Field: "retrieval.similarity_threshold", Reason: "must be in [0,1]"}
	}
	if c.Retrieval.Workers <= 0 {
		return &domain.ConfigurationError{Field: "retrieval.workers", Reason: "must be positive"}
	}
	if !domain.DedupScope(c.Mapping.DedupScope).IsValid() {
		return &domain.ConfigurationError{
			Field:  "mapping.dedup_scope",
			Reason: fmt.Sprintf("unknown scope %q", c.Mapping.DedupScope),
		}
	}
	if c.Classifier.ConfidenceFloor < 0 || c.Classifier.ConfidenceFloor > 1 {
		return &domain.ConfigurationError{Field: "classifier.confidence_floor", Reason: "must be in [0,1]"}
	}
	for category, level := range c.Classifier.RiskTable {
		if !domain.RiskLevel(level).IsValid() {
			return &domain.ConfigurationError{
				Field:  "classifier.risk_table",
				Reason: fmt.Sprintf("unknown risk level %q for category %s", level, category),
			}
		}
	}
	if err := domain.ValidateWeights(c.DomainWeights()); err != nil {
		return err
	}
	for level, penalty := range c.Scorecard.Penalties {
		if !domain.RiskLevel(level).IsValid() {
			return &domain.ConfigurationError{
				Field:  "scorecard.penalties",
				Reason: fmt.Sprintf("unknown risk level %q", level),
			}
		}
		if penalty < 0 {
			return &domain.ConfigurationError{
				Field:  "scorecard.penalties",
				Reason: fmt.Sprintf("negative penalty for %s", level),
			}
		}
	}
	if c.Recommendation.TopN <= 0 {
		return &domain.ConfigurationError{Field: "recommendation.top_n", Reason: "must be positive"}
	}
	if c.Review.ScoreThreshold < 0 || c.Review.ScoreThreshold > 100 {
		return &domain.ConfigurationError{Field: "review.score_threshold", Reason: "must be in [0,100]"}
	}
	if c.Ingest.MaxFileBytes <= 0 {
		return &domain.ConfigurationError{Field: "ingest.max_file_bytes", Reason: "must be positive"}
	}
	if c.Ingest.TimeoutSeconds <= 0 {
		return &domain.ConfigurationError{Field: "ingest.timeout_seconds", Reason: "must be positive"}
	}
	switch c.Embedding.Provider {
	case "local":
		if c.Embedding.Dimensions <= 0 {
			return &domain.ConfigurationError{Field: "embedding.dimensions", Reason: "must be positive"}
		}
	case "openai":
		if c.Embedding.Model == "" {
			return &domain.ConfigurationError{Field: "embedding.model", Reason: "required for the openai provider"}
		}
	default:
		return &domain.ConfigurationError{
			Field:  "embedding.provider",
			Reason: fmt.Sprintf("unknown provider %q", c.Embedding.Provider),
		}
	}
	if c.Embedding.MaxRetries < 0 {
		return &domain.ConfigurationError{Field: "embedding.max_retries", Reason: "must not be negative"}
	}
	return nil
}

// DomainWeights converts the configured weights into domain categories.
func (c Config) DomainWeights() map[domain.Category]float64 {
	weights := make(map[domain.Category]float64, len(c.Scorecard.Weights))
	for category, weight := range c.Scorecard.Weights {
		weights[domain.Category(category)] = weight
	}
	return weights
}

// DomainPenalties converts the configured penalties into a PenaltyTable.
func (c Config) DomainPenalties() domain.PenaltyTable {
	table := make(domain.PenaltyTable, len(c.Scorecard.Penalties))
	for level, penalty := range c.Scorecard.Penalties {
		table[domain.RiskLevel(level)] = penalty
	}
	return table
}

// DomainRiskTable overlays configured risk overrides on the defaults.
func (c Config) DomainRiskTable() domain.RiskTable {
	table := domain.DefaultRiskTable()
	for category, level := range c.Classifier.RiskTable {
		table[domain.Category(category)] = domain.RiskLevel(level)
	}
	return table
}
