package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/core/ports/driving"
	"github.com/custodia-labs/regready/internal/logger"
	"github.com/custodia-labs/regready/internal/postprocessors/chunker"
)

// Ensure CorpusManager implements the interface.
var _ driving.CorpusService = (*CorpusManager)(nil)

// CorpusSnapshot is an immutable view of one corpus revision: the
// vector index plus the article lookup tables retrieval needs. A
// snapshot is built aside and swapped in atomically; evaluation runs
// hold it for their whole lifetime and are never affected by a rebuild.
type CorpusSnapshot struct {
	// Revision is the content-addressed revision ID.
	Revision string

	// ModelVersion is the embedding model the index was built with.
	ModelVersion string

	// Index is the read-only vector index over corpus chunks.
	Index driven.VectorIndex

	// Articles maps article ID to the full article.
	Articles map[string]domain.RegulatoryArticle

	// ChunkArticle maps corpus chunk ID to its article ID.
	ChunkArticle map[string]string
}

// ArticleFor resolves the article a corpus chunk belongs to.
func (s *CorpusSnapshot) ArticleFor(chunkID string) (domain.RegulatoryArticle, bool) {
	articleID, ok := s.ChunkArticle[chunkID]
	if !ok {
		return domain.RegulatoryArticle{}, false
	}
	article, ok := s.Articles[articleID]
	return article, ok
}

// CorpusManager builds and serves corpus snapshots. Rebuilds are
// serialised; readers take the current snapshot without blocking.
type CorpusManager struct {
	store     driven.CorpusStore
	embedder  driven.EmbeddingService
	factory   driven.VectorIndexFactory
	processor *chunker.Processor

	mu       sync.RWMutex
	snapshot *CorpusSnapshot

	rebuildMu sync.Mutex
}

// NewCorpusManager creates a corpus manager.
func NewCorpusManager(
	store driven.CorpusStore,
	embedder driven.EmbeddingService,
	factory driven.VectorIndexFactory,
	processor *chunker.Processor,
) *CorpusManager {
	return &CorpusManager{
		store:     store,
		embedder:  embedder,
		factory:   factory,
		processor: processor,
	}
}

// Rebuild chunks and embeds the given articles into a fresh index and
// atomically makes it the current revision. A second concurrent rebuild
// fails with domain.ErrReindexInProgress; readers are never blocked.
func (m *CorpusManager) Rebuild(ctx context.Context, articles []domain.RegulatoryArticle) (string, error) {
	if !m.rebuildMu.TryLock() {
		return "", domain.ErrReindexInProgress
	}
	defer m.rebuildMu.Unlock()

	logger.Section("Corpus Rebuild")

	modelVersion := m.embedder.ModelVersion()
	revision := corpusRevision(modelVersion, articles)
	logger.Info("Revision %s (%d articles, model %s)", revision, len(articles), modelVersion)

	// An identical corpus under the same model needs no re-embedding.
	if current := m.Snapshot(); current != nil && current.Revision == revision {
		logger.Debug("Revision unchanged, skipping rebuild")
		return revision, nil
	}

	snapshot := &CorpusSnapshot{
		Revision:     revision,
		ModelVersion: modelVersion,
		Index:        m.factory(m.embedder.Dimensions()),
		Articles:     make(map[string]domain.RegulatoryArticle, len(articles)),
		ChunkArticle: make(map[string]string),
	}

	var stored []driven.CorpusChunk
	for _, article := range articles {
		snapshot.Articles[article.ID] = article

		chunks, err := m.chunkArticle(ctx, article)
		if err != nil {
			return "", fmt.Errorf("chunking article %s: %w", article.Citation(), err)
		}
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return "", fmt.Errorf("embedding article %s: %w", article.Citation(), err)
		}

		for i, chunk := range chunks {
			if err := snapshot.Index.Add(ctx, chunk.ID, vectors[i]); err != nil {
				return "", fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
			}
			snapshot.ChunkArticle[chunk.ID] = article.ID
			stored = append(stored, driven.CorpusChunk{
				ChunkID:   chunk.ID,
				ArticleID: article.ID,
				Text:      chunk.Text,
				Vector:    vectors[i],
			})
		}
	}

	if err := m.store.SaveRevision(ctx, revision, modelVersion, articles, stored); err != nil {
		return "", fmt.Errorf("saving revision: %w", err)
	}
	if err := m.store.SetCurrentRevision(ctx, revision); err != nil {
		return "", fmt.Errorf("setting current revision: %w", err)
	}

	m.mu.Lock()
	m.snapshot = snapshot
	m.mu.Unlock()

	logger.Info("Corpus rebuilt: %d chunks indexed", snapshot.Index.Len())
	return revision, nil
}

// Revision returns the current corpus revision ID.
func (m *CorpusManager) Revision(ctx context.Context) (string, error) {
	if snapshot := m.Snapshot(); snapshot != nil {
		return snapshot.Revision, nil
	}
	return m.store.CurrentRevision(ctx)
}

// Snapshot returns the in-memory snapshot, or nil when none is loaded.
func (m *CorpusManager) Snapshot() *CorpusSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Load restores the persisted current revision into memory, rebuilding
// the index from stored vectors without re-embedding. Returns
// domain.ErrNoCorpus when no revision has been built yet.
func (m *CorpusManager) Load(ctx context.Context) (*CorpusSnapshot, error) {
	if snapshot := m.Snapshot(); snapshot != nil {
		return snapshot, nil
	}

	revision, err := m.store.CurrentRevision(ctx)
	if err != nil {
		return nil, err
	}

	modelVersion, articles, chunks, err := m.store.GetRevision(ctx, revision)
	if err != nil {
		return nil, fmt.Errorf("loading revision %s: %w", revision, err)
	}

	snapshot := &CorpusSnapshot{
		Revision:     revision,
		ModelVersion: modelVersion,
		Index:        m.factory(m.embedder.Dimensions()),
		Articles:     make(map[string]domain.RegulatoryArticle, len(articles)),
		ChunkArticle: make(map[string]string, len(chunks)),
	}
	for _, article := range articles {
		snapshot.Articles[article.ID] = article
	}
	for _, chunk := range chunks {
		if err := snapshot.Index.Add(ctx, chunk.ChunkID, chunk.Vector); err != nil {
			return nil, fmt.Errorf("indexing chunk %s: %w", chunk.ChunkID, err)
		}
		snapshot.ChunkArticle[chunk.ChunkID] = chunk.ArticleID
	}

	m.mu.Lock()
	// A rebuild may have finished while loading; its snapshot wins.
	if m.snapshot == nil {
		m.snapshot = snapshot
	}
	snapshot = m.snapshot
	m.mu.Unlock()

	logger.Debug("Corpus revision %s loaded from store", revision)
	return snapshot, nil
}

// chunkArticle windows one article's text through the shared chunker.
// Articles are already heading-delimited, so most fit a single chunk.
func (m *CorpusManager) chunkArticle(ctx context.Context, article domain.RegulatoryArticle) ([]domain.Chunk, error) {
	doc := &domain.Document{
		ID:            article.ID,
		ExtractedText: article.Text,
		Pages:         []domain.Page{{Number: 1, Text: article.Text, CharOffset: 0}},
	}
	return m.processor.Process(ctx, doc)
}

// corpusRevision derives the content-addressed revision ID from the
// article set and the embedding model version.
func corpusRevision(modelVersion string, articles []domain.RegulatoryArticle) string {
	h := sha256.New()
	h.Write([]byte(modelVersion))
	for _, a := range articles {
		h.Write([]byte{0})
		h.Write([]byte(a.ID))
		h.Write([]byte{0})
		h.Write([]byte(a.SourceDoc))
		h.Write([]byte{0})
		h.Write([]byte(a.ArticleRef))
		h.Write([]byte{0})
		h.Write([]byte(a.Category))
		h.Write([]byte{0})
		h.Write([]byte(a.Text))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
