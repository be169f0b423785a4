package driven

import "context"

// VectorIndex provides nearest-neighbour search by cosine similarity.
//
// The corpus index is built once per revision and then only read;
// startup-document embeddings are never added to it.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by descending similarity. Ties are broken by lower chunk
	// ID so results are deterministic.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// VectorIndexFactory creates an empty index for a given dimensionality.
// The corpus manager uses it to build a fresh index aside before the
// atomic snapshot swap.
type VectorIndexFactory func(dimensions int) VectorIndex
