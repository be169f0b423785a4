package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "regready-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// ==================== Store Creation Tests ====================

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "regready-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "regready.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	err = store.db.Ping()
	assert.NoError(t, err)
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "regready-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs the migration loop against an up-to-date schema.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	var version int
	err = store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

// ==================== Run Store Tests ====================

func TestRunStore_UploadRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	runs := store.RunStore()

	first := domain.FileUpload{RunID: "run-1", Name: "business_plan.md", MIMEType: "text/markdown", Content: []byte("# Plan")}
	second := domain.FileUpload{RunID: "run-1", Name: "aml_policy.txt", MIMEType: "text/plain", Content: []byte("AML policy")}

	require.NoError(t, runs.SaveUpload(ctx, first))
	require.NoError(t, runs.SaveUpload(ctx, second))

	uploads, err := runs.ListUploads(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "business_plan.md", uploads[0].Name)
	assert.Equal(t, "aml_policy.txt", uploads[1].Name)
	assert.Equal(t, []byte("# Plan"), uploads[0].Content)
}

func TestRunStore_ResubmitKeepsSubmissionOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	runs := store.RunStore()

	require.NoError(t, runs.SaveUpload(ctx, domain.FileUpload{RunID: "run-1", Name: "a.txt", MIMEType: "text/plain", Content: []byte("v1")}))
	require.NoError(t, runs.SaveUpload(ctx, domain.FileUpload{RunID: "run-1", Name: "b.txt", MIMEType: "text/plain", Content: []byte("b")}))
	require.NoError(t, runs.SaveUpload(ctx, domain.FileUpload{RunID: "run-1", Name: "a.txt", MIMEType: "text/plain", Content: []byte("v2")}))

	uploads, err := runs.ListUploads(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "a.txt", uploads[0].Name)
	assert.Equal(t, []byte("v2"), uploads[0].Content)
}

func TestRunStore_SaveUpload_InvalidInput(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.RunStore().SaveUpload(context.Background(), domain.FileUpload{Name: "x.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunStore_DocumentAndChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	runs := store.RunStore()

	doc := domain.Document{
		ID:            "doc-1",
		RunID:         "run-1",
		SourceFileRef: "business_plan.md",
		MIMEType:      "text/markdown",
		ExtractedText: "page one\fpage two",
		Pages: []domain.Page{
			{Number: 1, Text: "page one", CharOffset: 0},
			{Number: 2, Text: "page two", CharOffset: 9},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, runs.SaveDocument(ctx, doc))

	chunks := []domain.Chunk{
		{ID: "chunk-1", DocumentID: "doc-1", Ordinal: 0, Text: "page one", PageNumber: 1, CharOffsetStart: 0, CharOffsetEnd: 8},
		{ID: "chunk-2", DocumentID: "doc-1", Ordinal: 1, Text: "page two", PageNumber: 2, CharOffsetStart: 9, CharOffsetEnd: 17},
	}
	require.NoError(t, runs.SaveChunks(ctx, chunks))

	// Re-saving identical chunks upserts without error.
	require.NoError(t, runs.SaveChunks(ctx, chunks))
}

func TestRunStore_Embeddings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	runs := store.RunStore()

	vectors := map[string][]float32{
		"chunk-1": {0.1, 0.2, 0.3},
		"chunk-2": {0.4, 0.5, 0.6},
	}
	require.NoError(t, runs.SaveEmbeddings(ctx, "local-hash-v1", vectors))

	var blob []byte
	err := store.db.QueryRow(
		"SELECT vector FROM run_embeddings WHERE chunk_id = ? AND model_version = ?",
		"chunk-1", "local-hash-v1").Scan(&blob)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, bytesToFloat32Slice(blob))
}

func TestRunStore_ResultRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	runs := store.RunStore()

	result := domain.EvaluationResult{
		RunID:            "run-1",
		CorpusRevision:   "rev-abc",
		ModelVersion:     "local-hash-v1",
		InputFingerprint: "fp-123",
		Scorecard: domain.Scorecard{
			OverallScore: 72.5,
			PerCategory: map[domain.Category]float64{
				domain.CategoryDataResidency: 70,
			},
		},
		Gaps: []domain.Gap{
			{ID: "gap-1", Category: domain.CategoryDataResidency, RiskLevel: domain.RiskHigh},
		},
	}
	require.NoError(t, runs.SaveResult(ctx, result))

	got, err := runs.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.RunID, got.RunID)
	assert.Equal(t, result.Scorecard.OverallScore, got.Scorecard.OverallScore)
	require.Len(t, got.Gaps, 1)
	assert.Equal(t, domain.RiskHigh, got.Gaps[0].RiskLevel)
}

func TestRunStore_GetResult_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.RunStore().GetResult(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_SaveResult_Supersedes(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	runs := store.RunStore()

	require.NoError(t, runs.SaveResult(ctx, domain.EvaluationResult{RunID: "run-1", InputFingerprint: "fp-old"}))
	require.NoError(t, runs.SaveResult(ctx, domain.EvaluationResult{RunID: "run-1", InputFingerprint: "fp-new"}))

	got, err := runs.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "fp-new", got.InputFingerprint)
}

// ==================== Corpus Store Tests ====================

func TestCorpusStore_RevisionRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	corpus := store.CorpusStore()

	articles := []domain.RegulatoryArticle{
		{ID: "art-1", SourceDoc: "QFC-REG-2024", SectionRef: "SECTION 2", ArticleRef: "2.1.1", Category: domain.CategoryDataResidency, Text: "Customer data must be stored in Qatar."},
	}
	chunks := []driven.CorpusChunk{
		{ChunkID: "cchunk-1", ArticleID: "art-1", Text: "Customer data must be stored in Qatar.", Vector: []float32{0.5, 0.5}},
	}

	require.NoError(t, corpus.SaveRevision(ctx, "rev-1", "local-hash-v1", articles, chunks))

	modelVersion, gotArticles, gotChunks, err := corpus.GetRevision(ctx, "rev-1")
	require.NoError(t, err)
	assert.Equal(t, "local-hash-v1", modelVersion)
	require.Len(t, gotArticles, 1)
	assert.Equal(t, "QFC-REG-2024:2.1.1", gotArticles[0].Citation())
	require.Len(t, gotChunks, 1)
	assert.Equal(t, []float32{0.5, 0.5}, gotChunks[0].Vector)
}

func TestCorpusStore_RevisionsAreImmutable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	corpus := store.CorpusStore()

	articles := []domain.RegulatoryArticle{{ID: "art-1", SourceDoc: "QFC", Text: "original"}}
	require.NoError(t, corpus.SaveRevision(ctx, "rev-1", "v1", articles, nil))

	// A rewrite of an existing revision is ignored.
	replacement := []domain.RegulatoryArticle{{ID: "art-2", SourceDoc: "QFC", Text: "replacement"}}
	require.NoError(t, corpus.SaveRevision(ctx, "rev-1", "v2", replacement, nil))

	modelVersion, gotArticles, _, err := corpus.GetRevision(ctx, "rev-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", modelVersion)
	require.Len(t, gotArticles, 1)
	assert.Equal(t, "art-1", gotArticles[0].ID)
}

func TestCorpusStore_CurrentRevision(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	corpus := store.CorpusStore()

	_, err := corpus.CurrentRevision(ctx)
	assert.ErrorIs(t, err, domain.ErrNoCorpus)

	require.NoError(t, corpus.SaveRevision(ctx, "rev-1", "v1", nil, nil))
	require.NoError(t, corpus.SaveRevision(ctx, "rev-2", "v1", nil, nil))

	require.NoError(t, corpus.SetCurrentRevision(ctx, "rev-1"))
	current, err := corpus.CurrentRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", current)

	require.NoError(t, corpus.SetCurrentRevision(ctx, "rev-2"))
	current, err = corpus.CurrentRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-2", current)
}

func TestCorpusStore_SetCurrentRevision_Unknown(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.CorpusStore().SetCurrentRevision(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Review Store Tests ====================

func TestReviewStore_FlagRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	reviews := store.ReviewStore()

	flag := domain.ReviewFlag{
		RunID:          "run-1",
		Reason:         "overall score 62.0 below review threshold",
		RequiredAction: "manual-review",
		State:          domain.ReviewPendingReview,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, reviews.Save(ctx, flag))

	got, err := reviews.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPendingReview, got.State)
	assert.Equal(t, "manual-review", got.RequiredAction)
	assert.Empty(t, got.Feedback)
}

func TestReviewStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.ReviewStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewStore_ListPending(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	reviews := store.ReviewStore()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, reviews.Save(ctx, domain.ReviewFlag{RunID: "run-a", Reason: "r", RequiredAction: "manual-review", State: domain.ReviewPendingReview, CreatedAt: base}))
	require.NoError(t, reviews.Save(ctx, domain.ReviewFlag{RunID: "run-b", Reason: "r", RequiredAction: "manual-review", State: domain.ReviewAutoResolved, CreatedAt: base}))
	require.NoError(t, reviews.Save(ctx, domain.ReviewFlag{RunID: "run-c", Reason: "r", RequiredAction: "manual-review", State: domain.ReviewPendingReview, CreatedAt: base.Add(time.Second)}))

	pending, err := reviews.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "run-a", pending[0].RunID)
	assert.Equal(t, "run-c", pending[1].RunID)
}

func TestReviewStore_FeedbackIsAppendOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	reviews := store.ReviewStore()

	flag := domain.ReviewFlag{
		RunID:          "run-1",
		Reason:         "low extraction confidence",
		RequiredAction: "manual-review",
		State:          domain.ReviewPendingReview,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, reviews.Save(ctx, flag))

	first := domain.ExpertFeedback{
		Decision:   domain.ReviewDecision{Kind: domain.DecisionDismiss, GapID: "gap-1", Reviewer: "analyst-1"},
		RecordedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, reviews.AppendFeedback(ctx, "run-1", first))

	// Transitioning the flag to reviewed must not truncate history.
	flag.State = domain.ReviewReviewed
	require.NoError(t, reviews.Save(ctx, flag))

	second := domain.ExpertFeedback{
		Decision:   domain.ReviewDecision{Kind: domain.DecisionAffirm, Reviewer: "analyst-2"},
		RecordedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, reviews.AppendFeedback(ctx, "run-1", second))

	got, err := reviews.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewReviewed, got.State)
	require.Len(t, got.Feedback, 2)
	assert.Equal(t, domain.DecisionDismiss, got.Feedback[0].Decision.Kind)
	assert.Equal(t, domain.DecisionAffirm, got.Feedback[1].Decision.Kind)
}

func TestReviewStore_AppendFeedback_UnknownRun(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.ReviewStore().AppendFeedback(context.Background(), "missing", domain.ExpertFeedback{
		Decision: domain.ReviewDecision{Kind: domain.DecisionAffirm},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
