package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// revision is one immutable stored corpus snapshot.
type revision struct {
	modelVersion string
	articles     []domain.RegulatoryArticle
	chunks       []driven.CorpusChunk
}

// CorpusStore is an in-memory implementation of driven.CorpusStore.
type CorpusStore struct {
	mu        sync.RWMutex
	revisions map[string]revision
	current   string
}

// NewCorpusStore creates a new in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		revisions: make(map[string]revision),
	}
}

// SaveRevision stores a fully built revision. Rewriting an existing
// revision is a no-op: revisions are content-addressed and immutable.
func (s *CorpusStore) SaveRevision(_ context.Context, rev, modelVersion string, articles []domain.RegulatoryArticle, chunks []driven.CorpusChunk) error {
	if rev == "" || modelVersion == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.revisions[rev]; ok {
		return nil
	}

	stored := revision{
		modelVersion: modelVersion,
		articles:     make([]domain.RegulatoryArticle, len(articles)),
		chunks:       make([]driven.CorpusChunk, len(chunks)),
	}
	copy(stored.articles, articles)
	copy(stored.chunks, chunks)
	s.revisions[rev] = stored
	return nil
}

// GetRevision loads a stored revision.
func (s *CorpusStore) GetRevision(_ context.Context, rev string) (string, []domain.RegulatoryArticle, []driven.CorpusChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.revisions[rev]
	if !ok {
		return "", nil, nil, domain.ErrNotFound
	}

	articles := make([]domain.RegulatoryArticle, len(stored.articles))
	copy(articles, stored.articles)
	chunks := make([]driven.CorpusChunk, len(stored.chunks))
	copy(chunks, stored.chunks)
	return stored.modelVersion, articles, chunks, nil
}

// SetCurrentRevision marks a revision as current.
func (s *CorpusStore) SetCurrentRevision(_ context.Context, rev string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.revisions[rev]; !ok {
		return domain.ErrNotFound
	}
	s.current = rev
	return nil
}

// CurrentRevision returns the current revision ID.
func (s *CorpusStore) CurrentRevision(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == "" {
		return "", domain.ErrNoCorpus
	}
	return s.current, nil
}
