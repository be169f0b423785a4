package driving

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// EvaluationService is the ingestion and evaluation boundary.
type EvaluationService interface {
	// SubmitDocuments admits files into a run. Each file is accepted or
	// rejected independently: unsupported MIME types and files over the
	// configured size limit are rejected with a reason, the rest are
	// stored for evaluation.
	SubmitDocuments(ctx context.Context, runID string, files []domain.FileUpload) ([]domain.FileReceipt, error)

	// Evaluate runs the full pipeline for a run and returns the result
	// payload. Re-invocation with the same run ID and unchanged inputs
	// returns an identical result for a fixed model version and corpus
	// revision.
	Evaluate(ctx context.Context, runID string) (*domain.EvaluationResult, error)
}
