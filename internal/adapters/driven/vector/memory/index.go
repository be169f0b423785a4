// Package memory provides an exact in-memory vector index. The corpus
// is small enough (thousands of article chunks) that brute-force cosine
// scan beats approximate structures on both simplicity and recall.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index holds vectors in memory and searches them exactly.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	vectors    map[string][]float32
	norms      map[string]float64
}

// New creates an empty index for the given dimensionality.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
		norms:      make(map[string]float64),
	}
}

// Factory adapts New to the driven.VectorIndexFactory signature.
func Factory(dimensions int) driven.VectorIndex {
	return New(dimensions)
}

// Add inserts a vector for the given chunk ID.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != idx.dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(embedding), idx.dimensions)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[chunkID] = vec
	idx.norms[chunkID] = norm(vec)
	return nil
}

// Search finds the k nearest neighbours to the query vector by cosine
// similarity, ties broken by lower chunk ID for determinism. Negative
// similarities are clamped to zero so scores stay on a 0-1 scale.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d", len(query), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(idx.vectors))
	for chunkID, vec := range idx.vectors {
		vecNorm := idx.norms[chunkID]
		if vecNorm == 0 {
			continue
		}
		sim := dot(query, vec) / (queryNorm * vecNorm)
		if sim < 0 {
			sim = 0
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Similarity: sim})
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
