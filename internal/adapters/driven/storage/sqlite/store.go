// Package sqlite persists runs, the regulatory corpus and review flags
// in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/regready/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to all
// store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.regready/data/regready.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".regready", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "regready.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// CorpusStore returns a CorpusStore interface backed by this store.
func (s *Store) CorpusStore() driven.CorpusStore {
	return &corpusStore{store: s}
}

// ReviewStore returns a ReviewStore interface backed by this store.
func (s *Store) ReviewStore() driven.ReviewStore {
	return &reviewStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveUpload stores an accepted raw file for a run. Resubmitting a file
// name within a run replaces its content but keeps its submission slot.
func (s *runStore) SaveUpload(ctx context.Context, file domain.FileUpload) error {
	if file.RunID == "" || file.Name == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO uploads (run_id, name, mime_type, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, name) DO UPDATE SET
			mime_type = excluded.mime_type,
			content = excluded.content
	`, file.RunID, file.Name, file.MIMEType, file.Content)

	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

// ListUploads returns the accepted files for a run in submission order.
func (s *runStore) ListUploads(ctx context.Context, runID string) ([]domain.FileUpload, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, name, mime_type, content
		FROM uploads WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var uploads []domain.FileUpload //nolint:prealloc // size unknown from query
	for rows.Next() {
		var file domain.FileUpload
		if err := rows.Scan(&file.RunID, &file.Name, &file.MIMEType, &file.Content); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		uploads = append(uploads, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating uploads: %w", err)
	}

	return uploads, nil
}

// SaveDocument stores an extracted document.
func (s *runStore) SaveDocument(ctx context.Context, doc domain.Document) error {
	pagesJSON, err := json.Marshal(doc.Pages)
	if err != nil {
		return fmt.Errorf("marshalling pages: %w", err)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, run_id, source_file_ref, mime_type, extracted_text, pages, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			source_file_ref = excluded.source_file_ref,
			mime_type = excluded.mime_type,
			extracted_text = excluded.extracted_text,
			pages = excluded.pages
	`, doc.ID, doc.RunID, doc.SourceFileRef, doc.MIMEType,
		doc.ExtractedText, string(pagesJSON), doc.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores the chunks of a document in one transaction.
func (s *runStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, ordinal, text, page_number, char_start, char_end)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			ordinal = excluded.ordinal,
			text = excluded.text,
			page_number = excluded.page_number,
			char_start = excluded.char_start,
			char_end = excluded.char_end
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Ordinal,
			chunk.Text, chunk.PageNumber, chunk.CharOffsetStart, chunk.CharOffsetEnd); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveEmbeddings stores per-run chunk embeddings for a model version.
func (s *runStore) SaveEmbeddings(ctx context.Context, modelVersion string, vectors map[string][]float32) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_embeddings (chunk_id, model_version, vector)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id, model_version) DO UPDATE SET
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for chunkID, vector := range vectors {
		if _, err := stmt.ExecContext(ctx, chunkID, modelVersion, float32SliceToBytes(vector)); err != nil {
			return fmt.Errorf("saving embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveResult stores the complete evaluation result for a run,
// superseding any previous result.
func (s *runStore) SaveResult(ctx context.Context, result domain.EvaluationResult) error {
	if result.RunID == "" {
		return domain.ErrInvalidInput
	}

	payloadJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO results (run_id, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, result.RunID, string(payloadJSON), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// GetResult returns the stored result for a run.
func (s *runStore) GetResult(ctx context.Context, runID string) (*domain.EvaluationResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT payload FROM results WHERE run_id = ?
	`, runID)

	var payloadJSON string
	if err := row.Scan(&payloadJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning result: %w", err)
	}

	var result domain.EvaluationResult
	if err := json.Unmarshal([]byte(payloadJSON), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling result: %w", err)
	}

	return &result, nil
}

// ==================== Corpus Store ====================

// corpusStore implements driven.CorpusStore.
type corpusStore struct {
	store *Store
}

var _ driven.CorpusStore = (*corpusStore)(nil)

// SaveRevision stores a fully built revision. Writing a revision that
// already exists is a no-op: revisions are content-addressed and
// immutable.
func (s *corpusStore) SaveRevision(ctx context.Context, revision, modelVersion string, articles []domain.RegulatoryArticle, chunks []driven.CorpusChunk) error {
	if revision == "" || modelVersion == "" {
		return domain.ErrInvalidInput
	}

	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM corpus_revisions WHERE revision = ?", revision).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking revision: %w", err)
	}
	if exists > 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO corpus_revisions (revision, model_version, created_at)
		VALUES (?, ?, ?)
	`, revision, modelVersion, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving revision: %w", err)
	}

	articleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO corpus_articles (revision, position, id, source_doc, section_ref, article_ref, category, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing article statement: %w", err)
	}
	defer articleStmt.Close()

	for i, a := range articles {
		if _, err := articleStmt.ExecContext(ctx, revision, i, a.ID, a.SourceDoc,
			a.SectionRef, a.ArticleRef, string(a.Category), a.Text); err != nil {
			return fmt.Errorf("saving article: %w", err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO corpus_chunks (revision, position, chunk_id, article_id, text, vector)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	for i, c := range chunks {
		if _, err := chunkStmt.ExecContext(ctx, revision, i, c.ChunkID, c.ArticleID,
			c.Text, float32SliceToBytes(c.Vector)); err != nil {
			return fmt.Errorf("saving corpus chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetRevision loads a stored revision.
func (s *corpusStore) GetRevision(ctx context.Context, revision string) (string, []domain.RegulatoryArticle, []driven.CorpusChunk, error) {
	var modelVersion string
	row := s.store.db.QueryRowContext(ctx,
		"SELECT model_version FROM corpus_revisions WHERE revision = ?", revision)
	if err := row.Scan(&modelVersion); err != nil {
		if err == sql.ErrNoRows {
			return "", nil, nil, domain.ErrNotFound
		}
		return "", nil, nil, fmt.Errorf("scanning revision: %w", err)
	}

	articleRows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_doc, section_ref, article_ref, category, text
		FROM corpus_articles WHERE revision = ?
		ORDER BY position
	`, revision)
	if err != nil {
		return "", nil, nil, fmt.Errorf("querying articles: %w", err)
	}
	defer articleRows.Close()

	var articles []domain.RegulatoryArticle //nolint:prealloc // size unknown from query
	for articleRows.Next() {
		var a domain.RegulatoryArticle
		var category string
		if err := articleRows.Scan(&a.ID, &a.SourceDoc, &a.SectionRef,
			&a.ArticleRef, &category, &a.Text); err != nil {
			return "", nil, nil, fmt.Errorf("scanning article: %w", err)
		}
		a.Category = domain.Category(category)
		articles = append(articles, a)
	}
	if err := articleRows.Err(); err != nil {
		return "", nil, nil, fmt.Errorf("iterating articles: %w", err)
	}

	chunkRows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, article_id, text, vector
		FROM corpus_chunks WHERE revision = ?
		ORDER BY position
	`, revision)
	if err != nil {
		return "", nil, nil, fmt.Errorf("querying corpus chunks: %w", err)
	}
	defer chunkRows.Close()

	var chunks []driven.CorpusChunk //nolint:prealloc // size unknown from query
	for chunkRows.Next() {
		var c driven.CorpusChunk
		var vectorBlob []byte
		if err := chunkRows.Scan(&c.ChunkID, &c.ArticleID, &c.Text, &vectorBlob); err != nil {
			return "", nil, nil, fmt.Errorf("scanning corpus chunk: %w", err)
		}
		c.Vector = bytesToFloat32Slice(vectorBlob)
		chunks = append(chunks, c)
	}
	if err := chunkRows.Err(); err != nil {
		return "", nil, nil, fmt.Errorf("iterating corpus chunks: %w", err)
	}

	return modelVersion, articles, chunks, nil
}

// SetCurrentRevision marks a revision as current.
func (s *corpusStore) SetCurrentRevision(ctx context.Context, revision string) error {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM corpus_revisions WHERE revision = ?", revision).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking revision: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO corpus_current (id, revision)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET revision = excluded.revision
	`, revision)
	if err != nil {
		return fmt.Errorf("setting current revision: %w", err)
	}
	return nil
}

// CurrentRevision returns the current revision ID.
func (s *corpusStore) CurrentRevision(ctx context.Context) (string, error) {
	var revision string
	row := s.store.db.QueryRowContext(ctx, "SELECT revision FROM corpus_current WHERE id = 1")
	if err := row.Scan(&revision); err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrNoCorpus
		}
		return "", fmt.Errorf("scanning current revision: %w", err)
	}
	return revision, nil
}

// ==================== Review Store ====================

// reviewStore implements driven.ReviewStore.
type reviewStore struct {
	store *Store
}

var _ driven.ReviewStore = (*reviewStore)(nil)

// Save stores a review flag. The feedback history lives in its own
// append-only table and is never touched here.
func (s *reviewStore) Save(ctx context.Context, flag domain.ReviewFlag) error {
	if flag.RunID == "" || !flag.State.IsValid() {
		return domain.ErrInvalidInput
	}

	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO review_flags (run_id, reason, required_action, state, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			reason = excluded.reason,
			required_action = excluded.required_action,
			state = excluded.state
	`, flag.RunID, flag.Reason, flag.RequiredAction, string(flag.State), flag.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving review flag: %w", err)
	}
	return nil
}

// Get returns the flag for a run with its full feedback history.
func (s *reviewStore) Get(ctx context.Context, runID string) (*domain.ReviewFlag, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT run_id, reason, required_action, state, created_at
		FROM review_flags WHERE run_id = ?
	`, runID)

	flag, err := scanReviewFlag(row)
	if err != nil {
		return nil, err
	}

	feedback, err := s.feedbackFor(ctx, runID)
	if err != nil {
		return nil, err
	}
	flag.Feedback = feedback

	return flag, nil
}

// ListPending returns all flags in the pending-review state, ordered by
// creation time then run ID.
func (s *reviewStore) ListPending(ctx context.Context) ([]domain.ReviewFlag, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, reason, required_action, state, created_at
		FROM review_flags WHERE state = ?
		ORDER BY created_at, run_id
	`, string(domain.ReviewPendingReview))
	if err != nil {
		return nil, fmt.Errorf("querying review flags: %w", err)
	}
	defer rows.Close()

	var flags []domain.ReviewFlag //nolint:prealloc // size unknown from query
	for rows.Next() {
		var flag domain.ReviewFlag
		var state string
		if err := rows.Scan(&flag.RunID, &flag.Reason, &flag.RequiredAction,
			&state, &flag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review flag: %w", err)
		}
		flag.State = domain.ReviewState(state)
		flags = append(flags, flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review flags: %w", err)
	}

	for i := range flags {
		feedback, err := s.feedbackFor(ctx, flags[i].RunID)
		if err != nil {
			return nil, err
		}
		flags[i].Feedback = feedback
	}

	return flags, nil
}

// AppendFeedback appends one expert decision to a flag's history.
func (s *reviewStore) AppendFeedback(ctx context.Context, runID string, feedback domain.ExpertFeedback) error {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review_flags WHERE run_id = ?", runID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking review flag: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	decisionJSON, err := json.Marshal(feedback.Decision)
	if err != nil {
		return fmt.Errorf("marshalling decision: %w", err)
	}

	if feedback.RecordedAt.IsZero() {
		feedback.RecordedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO review_feedback (run_id, decision, recorded_at)
		VALUES (?, ?, ?)
	`, runID, string(decisionJSON), feedback.RecordedAt)

	if err != nil {
		return fmt.Errorf("appending feedback: %w", err)
	}
	return nil
}

// feedbackFor loads the feedback history for a run in recorded order.
func (s *reviewStore) feedbackFor(ctx context.Context, runID string) ([]domain.ExpertFeedback, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT decision, recorded_at
		FROM review_feedback WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var feedback []domain.ExpertFeedback //nolint:prealloc // size unknown from query
	for rows.Next() {
		var fb domain.ExpertFeedback
		var decisionJSON string
		if err := rows.Scan(&decisionJSON, &fb.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		if err := json.Unmarshal([]byte(decisionJSON), &fb.Decision); err != nil {
			return nil, fmt.Errorf("unmarshaling decision: %w", err)
		}
		feedback = append(feedback, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback: %w", err)
	}

	return feedback, nil
}

// ==================== Helper Functions ====================

// scanReviewFlag scans a single review flag row without feedback.
func scanReviewFlag(row *sql.Row) (*domain.ReviewFlag, error) {
	var flag domain.ReviewFlag
	var state string
	if err := row.Scan(&flag.RunID, &flag.Reason, &flag.RequiredAction,
		&state, &flag.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning review flag: %w", err)
	}
	flag.State = domain.ReviewState(state)
	return &flag, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
