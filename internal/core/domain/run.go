package domain

// IngestionState records whether a submitted document made it into the
// evaluation.
type IngestionState string

// Available ingestion states.
const (
	// IngestionIncluded means the document was extracted and evaluated.
	IngestionIncluded IngestionState = "included"

	// IngestionExcluded means the document was rejected or failed
	// extraction; the run proceeded without it.
	IngestionExcluded IngestionState = "excluded"
)

// DocumentStatus is the per-document ingestion outcome. A run never
// produces a scorecard silently built from a subset of documents: the
// result payload always enumerates these alongside the score.
type DocumentStatus struct {
	// DocumentID is set when the document was created; empty when the
	// file never survived extraction.
	DocumentID string

	// FileName is the submitted file name.
	FileName string

	// State is included or excluded.
	State IngestionState

	// Reason explains an exclusion. Empty when included.
	Reason string

	// ExtractionConfidence is the weighted confidence of the entity
	// extractors over this document, in [0,1].
	ExtractionConfidence float64
}

// EvaluationResult is the full payload returned by an evaluation run.
// For unchanged inputs, a fixed model version and a fixed corpus
// revision, repeated evaluation returns an identical result.
type EvaluationResult struct {
	// RunID is the evaluation run.
	RunID string

	// CorpusRevision is the corpus snapshot the run evaluated against.
	CorpusRevision string

	// ModelVersion is the embedding model version used.
	ModelVersion string

	// InputFingerprint is the digest of the submitted file set, used
	// for idempotent re-invocation.
	InputFingerprint string

	// Scorecard is the weighted readiness score.
	Scorecard Scorecard

	// Gaps are the detected deficiencies, ordered deterministically.
	Gaps []Gap

	// Mappings are the retained evidence-linked associations.
	Mappings []Mapping

	// Recommendations are the matched remediation resources.
	Recommendations []Recommendation

	// Advisories are near-threshold observations that triggered
	// remediation matching without a violation.
	Advisories []Advisory

	// Documents enumerates per-document ingestion status.
	Documents []DocumentStatus

	// Review is the review flag raised for this run, nil when the run
	// auto-resolved.
	Review *ReviewFlag
}
