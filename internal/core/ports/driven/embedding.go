package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Embed must be deterministic for a fixed ModelVersion: the same text
// always yields the same vector, which enables caching by chunk text
// hash. When ModelVersion changes the corpus is re-embedded wholesale;
// there is no partial migration.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Local deterministic models for offline and test use
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelVersion identifies the model. Embeddings are keyed by it;
	// comparing vectors across model versions is invalid.
	ModelVersion() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
