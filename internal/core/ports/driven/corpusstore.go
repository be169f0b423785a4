package driven

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// CorpusChunk is one embedded span of a regulatory article as persisted
// per corpus revision.
type CorpusChunk struct {
	// ChunkID is the deterministic chunk identifier.
	ChunkID string

	// ArticleID links back to the article the span came from.
	ArticleID string

	// Text is the span content.
	Text string

	// Vector is the embedding under the revision's model version.
	Vector []float32
}

// CorpusStore persists regulatory articles and their embeddings, keyed
// by corpus revision.
type CorpusStore interface {
	// SaveRevision stores a fully built revision: its articles, chunks
	// and model version. Revisions are immutable once written.
	SaveRevision(ctx context.Context, revision, modelVersion string, articles []domain.RegulatoryArticle, chunks []CorpusChunk) error

	// GetRevision loads a stored revision.
	GetRevision(ctx context.Context, revision string) (modelVersion string, articles []domain.RegulatoryArticle, chunks []CorpusChunk, err error)

	// SetCurrentRevision marks a revision as current.
	SetCurrentRevision(ctx context.Context, revision string) error

	// CurrentRevision returns the current revision ID, or
	// domain.ErrNoCorpus when none has been built.
	CurrentRevision(ctx context.Context) (string, error)
}
