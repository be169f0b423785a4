package domain

// Mapping is an evidence-linked association between a startup statement
// and a specific regulatory article. Mappings are many-to-many between
// startup chunks and articles; one is retained only when its similarity
// clears the minimum retrieval threshold.
type Mapping struct {
	// ID is the unique identifier for the mapping. Derived
	// deterministically from the startup chunk and article IDs.
	ID string

	// StartupChunkID is the chunk of the business document set.
	StartupChunkID string

	// ArticleID is the matched regulatory article.
	ArticleID string

	// SimilarityScore is the cosine similarity on a 0-1 scale.
	SimilarityScore float64

	// EvidenceSnippet is the literal matched text span, so every
	// downstream gap can cite chapter and verse.
	EvidenceSnippet string

	// PageNumber is the page the evidence came from.
	PageNumber int
}

// DedupScope controls the granularity at which mappings to the same
// article are collapsed, keeping the highest-similarity instance.
type DedupScope string

// Available dedup scopes.
const (
	// DedupPerDocument collapses duplicate article mappings within each
	// document independently.
	DedupPerDocument DedupScope = "per-document"

	// DedupPerRun collapses duplicate article mappings across the whole
	// evaluation run.
	DedupPerRun DedupScope = "per-run"
)

// IsValid returns true if the dedup scope is recognised.
func (s DedupScope) IsValid() bool {
	switch s {
	case DedupPerDocument, DedupPerRun:
		return true
	default:
		return false
	}
}
