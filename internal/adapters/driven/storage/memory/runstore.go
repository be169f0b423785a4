// Package memory provides in-memory store implementations used by
// tests and as lightweight defaults where persistence is not required.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu         sync.RWMutex
	uploads    map[string][]domain.FileUpload
	documents  map[string]domain.Document
	chunks     map[string][]domain.Chunk
	embeddings map[string]map[string][]float32
	results    map[string]domain.EvaluationResult
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		uploads:    make(map[string][]domain.FileUpload),
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string][]domain.Chunk),
		embeddings: make(map[string]map[string][]float32),
		results:    make(map[string]domain.EvaluationResult),
	}
}

// SaveUpload stores an accepted raw file for a run. Resubmitting a file
// name replaces its content in place, preserving submission order.
func (s *RunStore) SaveUpload(_ context.Context, file domain.FileUpload) error {
	if file.RunID == "" || file.Name == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files := s.uploads[file.RunID]
	for i, existing := range files {
		if existing.Name == file.Name {
			files[i] = file
			return nil
		}
	}
	s.uploads[file.RunID] = append(files, file)
	return nil
}

// ListUploads returns the accepted files for a run in submission order.
func (s *RunStore) ListUploads(_ context.Context, runID string) ([]domain.FileUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := s.uploads[runID]
	out := make([]domain.FileUpload, len(files))
	copy(out, files)
	return out, nil
}

// SaveDocument stores an extracted document.
func (s *RunStore) SaveDocument(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

// SaveChunks stores the chunks of a document.
func (s *RunStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		docChunks := s.chunks[chunk.DocumentID]
		replaced := false
		for i, existing := range docChunks {
			if existing.ID == chunk.ID {
				docChunks[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			s.chunks[chunk.DocumentID] = append(docChunks, chunk)
		}
	}
	return nil
}

// SaveEmbeddings stores per-run chunk embeddings for a model version.
func (s *RunStore) SaveEmbeddings(_ context.Context, modelVersion string, vectors map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byModel := s.embeddings[modelVersion]
	if byModel == nil {
		byModel = make(map[string][]float32, len(vectors))
		s.embeddings[modelVersion] = byModel
	}
	for chunkID, vector := range vectors {
		copied := make([]float32, len(vector))
		copy(copied, vector)
		byModel[chunkID] = copied
	}
	return nil
}

// SaveResult stores the complete evaluation result for a run.
func (s *RunStore) SaveResult(_ context.Context, result domain.EvaluationResult) error {
	if result.RunID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.RunID] = result
	return nil
}

// GetResult returns the stored result for a run.
func (s *RunStore) GetResult(_ context.Context, runID string) (*domain.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &result, nil
}
