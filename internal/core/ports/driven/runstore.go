package driven

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// RunStore persists per-run evaluation state: uploads, documents,
// chunks and the final result payload, all keyed by run ID.
type RunStore interface {
	// SaveUpload stores an accepted raw file for a run.
	SaveUpload(ctx context.Context, file domain.FileUpload) error

	// ListUploads returns the accepted files for a run, in submission
	// order.
	ListUploads(ctx context.Context, runID string) ([]domain.FileUpload, error)

	// SaveDocument stores an extracted document.
	SaveDocument(ctx context.Context, doc domain.Document) error

	// SaveChunks stores the chunks of a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// SaveEmbeddings stores per-run chunk embeddings for a model
	// version. These never enter the corpus index.
	SaveEmbeddings(ctx context.Context, modelVersion string, vectors map[string][]float32) error

	// SaveResult stores the complete evaluation result for a run,
	// superseding any previous result.
	SaveResult(ctx context.Context, result domain.EvaluationResult) error

	// GetResult returns the stored result for a run, or
	// domain.ErrNotFound when the run has not been evaluated.
	GetResult(ctx context.Context, runID string) (*domain.EvaluationResult, error)
}
