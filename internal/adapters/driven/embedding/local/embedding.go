// Package local provides a deterministic on-device embedding service.
// Vectors are produced by token feature hashing with no model download
// or network dependency, which keeps evaluations reproducible in
// air-gapped and test environments.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default embedding size.
const DefaultDimensions = 256

// modelVersion identifies the hashing scheme. Changing the tokeniser or
// dimensionality requires bumping this so cached vectors are not reused
// across incompatible schemes.
const modelVersion = "local-hash-v1"

// EmbeddingService generates embeddings via token feature hashing.
// Identical text always yields an identical vector.
type EmbeddingService struct {
	dimensions int
}

// Option configures the local embedding service.
type Option func(*EmbeddingService)

// WithDimensions sets the embedding vector size.
func WithDimensions(d int) Option {
	return func(s *EmbeddingService) {
		if d > 0 {
			s.dimensions = d
		}
	}
}

// New creates a local embedding service.
func New(opts ...Option) *EmbeddingService {
	s := &EmbeddingService{dimensions: DefaultDimensions}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dimensions)

	for _, token := range tokenise(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(s.dimensions))
		// Half the hash space contributes negatively so vectors spread
		// over the full sphere rather than one orthant.
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	normalise(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelVersion identifies the hashing scheme.
func (s *EmbeddingService) ModelVersion() string {
	return modelVersion
}

// Ping always succeeds: the service has no external dependency.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// tokenise lower-cases and splits on non-alphanumeric runes, emitting
// unigrams and adjacent bigrams for a little word-order sensitivity.
func tokenise(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields)*2)
	for i, f := range fields {
		tokens = append(tokens, f)
		if i > 0 {
			tokens = append(tokens, fields[i-1]+" "+f)
		}
	}
	return tokens
}

// normalise scales vec to unit length in place.
func normalise(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
