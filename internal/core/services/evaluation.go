package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/core/ports/driving"
	"github.com/custodia-labs/regready/internal/logger"
	"github.com/custodia-labs/regready/internal/postprocessors/chunker"
)

// Ensure Evaluator implements the interface.
var _ driving.EvaluationService = (*Evaluator)(nil)

// Evaluator drives the full pipeline: admission, extraction, chunking,
// retrieval, classification, scoring, recommendation and the review
// gate. Re-evaluating a run with unchanged inputs against the same
// corpus revision and model version returns the stored result.
type Evaluator struct {
	runStore    driven.RunStore
	reviewStore driven.ReviewStore
	registry    driven.NormaliserRegistry
	processor   *chunker.Processor
	extractor   driven.EntityExtractor
	embedder    driven.EmbeddingService
	corpus      *CorpusManager
	classifier  *Classifier
	calculator  *Calculator
	matcher     *Matcher
	gate        *ReviewGate

	topK                int
	similarityThreshold float64
	workers             int
	dedupScope          domain.DedupScope
	maxFileBytes        int64
	fileTimeout         time.Duration
	embedRetries        int
	retryBaseDelay      time.Duration
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithTopK sets the number of corpus neighbours fetched per chunk.
func WithTopK(k int) EvaluatorOption {
	return func(e *Evaluator) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithSimilarityThreshold sets the minimum similarity a mapping must
// clear to be retained.
func WithSimilarityThreshold(threshold float64) EvaluatorOption {
	return func(e *Evaluator) {
		if threshold >= 0 && threshold <= 1 {
			e.similarityThreshold = threshold
		}
	}
}

// WithWorkers bounds the retrieval fan-out.
func WithWorkers(n int) EvaluatorOption {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithDedupScope sets the mapping dedup granularity.
func WithDedupScope(scope domain.DedupScope) EvaluatorOption {
	return func(e *Evaluator) {
		if scope.IsValid() {
			e.dedupScope = scope
		}
	}
}

// WithMaxFileBytes sets the upload size limit.
func WithMaxFileBytes(limit int64) EvaluatorOption {
	return func(e *Evaluator) {
		if limit > 0 {
			e.maxFileBytes = limit
		}
	}
}

// WithFileTimeout bounds per-document extraction.
func WithFileTimeout(timeout time.Duration) EvaluatorOption {
	return func(e *Evaluator) {
		if timeout > 0 {
			e.fileTimeout = timeout
		}
	}
}

// WithEmbedRetries bounds retry attempts on embedding failure.
func WithEmbedRetries(retries int) EvaluatorOption {
	return func(e *Evaluator) {
		if retries >= 0 {
			e.embedRetries = retries
		}
	}
}

// withRetryBaseDelay shortens backoff in tests.
func withRetryBaseDelay(delay time.Duration) EvaluatorOption {
	return func(e *Evaluator) {
		e.retryBaseDelay = delay
	}
}

// NewEvaluator creates the evaluation service.
func NewEvaluator(
	runStore driven.RunStore,
	reviewStore driven.ReviewStore,
	registry driven.NormaliserRegistry,
	processor *chunker.Processor,
	extractor driven.EntityExtractor,
	embedder driven.EmbeddingService,
	corpus *CorpusManager,
	classifier *Classifier,
	calculator *Calculator,
	matcher *Matcher,
	gate *ReviewGate,
	opts ...EvaluatorOption,
) *Evaluator {
	e := &Evaluator{
		runStore:            runStore,
		reviewStore:         reviewStore,
		registry:            registry,
		processor:           processor,
		extractor:           extractor,
		embedder:            embedder,
		corpus:              corpus,
		classifier:          classifier,
		calculator:          calculator,
		matcher:             matcher,
		gate:                gate,
		topK:                5,
		similarityThreshold: 0.35,
		workers:             4,
		dedupScope:          domain.DedupPerDocument,
		maxFileBytes:        10 << 20,
		fileTimeout:         30 * time.Second,
		embedRetries:        3,
		retryBaseDelay:      200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitDocuments admits files into a run. Each file is accepted or
// rejected independently; a rejection never blocks its siblings.
func (e *Evaluator) SubmitDocuments(
	ctx context.Context,
	runID string,
	files []domain.FileUpload,
) ([]domain.FileReceipt, error) {
	if runID == "" || len(files) == 0 {
		return nil, domain.ErrInvalidInput
	}

	logger.Section("Document Submission")
	receipts := make([]domain.FileReceipt, 0, len(files))

	for _, file := range files {
		receipt := domain.FileReceipt{Name: file.Name}

		switch {
		case file.Name == "":
			receipt.Reason = "file name is empty"
		case int64(len(file.Content)) > e.maxFileBytes:
			receipt.Reason = fmt.Sprintf("%v: %d bytes exceeds limit %d",
				domain.ErrFileTooLarge, len(file.Content), e.maxFileBytes)
		default:
			if _, err := e.registry.ForMIMEType(file.MIMEType); err != nil {
				receipt.Reason = fmt.Sprintf("%v: %s", domain.ErrUnsupportedType, file.MIMEType)
				break
			}
			file.RunID = runID
			if err := e.runStore.SaveUpload(ctx, file); err != nil {
				return nil, fmt.Errorf("saving upload %s: %w", file.Name, err)
			}
			receipt.Accepted = true
		}

		if receipt.Accepted {
			logger.Debug("Accepted %s (%d bytes)", file.Name, len(file.Content))
		} else {
			logger.Warn("Rejected %s: %s", file.Name, receipt.Reason)
		}
		receipts = append(receipts, receipt)
	}

	return receipts, nil
}

// Evaluate runs the full pipeline for a run.
func (e *Evaluator) Evaluate(ctx context.Context, runID string) (*domain.EvaluationResult, error) {
	if runID == "" {
		return nil, domain.ErrInvalidInput
	}

	uploads, err := e.runStore.ListUploads(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("listing uploads for run %s: %w", runID, err)
	}
	if len(uploads) == 0 {
		return nil, domain.ErrRunNotSubmitted
	}

	snapshot, err := e.corpus.Load(ctx)
	if err != nil {
		return nil, err
	}

	fingerprint := inputFingerprint(uploads)
	if stored, err := e.runStore.GetResult(ctx, runID); err == nil &&
		stored.InputFingerprint == fingerprint &&
		stored.CorpusRevision == snapshot.Revision &&
		stored.ModelVersion == e.embedder.ModelVersion() {
		logger.Debug("Run %s unchanged, returning stored result", runID)
		return stored, nil
	}

	logger.Section("Evaluation Run " + runID)
	logger.Info("%d files against corpus revision %s", len(uploads), snapshot.Revision)

	statuses, chunks, entities, err := e.ingest(ctx, runID, uploads)
	if err != nil {
		return nil, err
	}

	mappings, err := e.retrieve(ctx, runID, chunks, snapshot)
	if err != nil {
		return nil, err
	}
	mappings = dedupMappings(mappings, e.dedupScope, chunks)

	classification, err := e.classifier.Classify(ctx, runID, entities, mappings, snapshot)
	if err != nil {
		return nil, fmt.Errorf("classifying run %s: %w", runID, err)
	}

	card := e.calculator.Score(classification.Gaps)

	recommendations, err := e.matcher.Recommend(ctx, classification.Gaps, classification.Advisories)
	if err != nil {
		return nil, err
	}

	result := &domain.EvaluationResult{
		RunID:            runID,
		CorpusRevision:   snapshot.Revision,
		ModelVersion:     e.embedder.ModelVersion(),
		InputFingerprint: fingerprint,
		Scorecard:        card,
		Gaps:             classification.Gaps,
		Mappings:         mappings,
		Recommendations:  recommendations,
		Advisories:       classification.Advisories,
		Documents:        statuses,
	}

	if flag := e.gate.Check(runID, card, classification.Gaps, classification.ReviewReasons); flag != nil {
		if err := e.reviewStore.Save(ctx, *flag); err != nil {
			return nil, fmt.Errorf("saving review flag for run %s: %w", runID, err)
		}
		result.Review = flag
		logger.Warn("Run %s flagged for review: %s", runID, flag.Reason)
	}

	// Never persist a partial result for a cancelled run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.runStore.SaveResult(ctx, *result); err != nil {
		return nil, fmt.Errorf("saving result for run %s: %w", runID, err)
	}

	logger.Info("Run %s complete: score %.1f, %d gaps", runID, card.OverallScore, len(result.Gaps))
	return result, nil
}

// ingest normalises, persists, chunks and entity-extracts each upload.
// A corrupt file is excluded with a reason; the run proceeds with the
// remaining documents.
func (e *Evaluator) ingest(
	ctx context.Context,
	runID string,
	uploads []domain.FileUpload,
) ([]domain.DocumentStatus, []domain.Chunk, domain.DocumentEntities, error) {
	statuses := make([]domain.DocumentStatus, 0, len(uploads))
	var allChunks []domain.Chunk
	var merged domain.DocumentEntities

	for i := range uploads {
		file := uploads[i]
		status := domain.DocumentStatus{FileName: file.Name, State: domain.IngestionExcluded}

		doc, docEntities, chunks, err := e.ingestOne(ctx, runID, &file)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, domain.DocumentEntities{}, ctx.Err()
			}
			extractionErr := &domain.ExtractionError{File: file.Name, Err: err}
			status.Reason = extractionErr.Error()
			logger.Warn("Excluding %s: %v", file.Name, err)
			statuses = append(statuses, status)
			continue
		}

		status.DocumentID = doc.ID
		status.State = domain.IngestionIncluded
		status.ExtractionConfidence = docEntities.Confidence
		statuses = append(statuses, status)

		allChunks = append(allChunks, chunks...)
		merged.Merge(docEntities)
	}

	logger.Info("Ingested %d/%d documents, %d chunks", includedCount(statuses), len(uploads), len(allChunks))
	return statuses, allChunks, merged, nil
}

// ingestOne processes a single upload under the per-file deadline.
func (e *Evaluator) ingestOne(
	ctx context.Context,
	runID string,
	file *domain.FileUpload,
) (*domain.Document, domain.DocumentEntities, []domain.Chunk, error) {
	fileCtx, cancel := context.WithTimeout(ctx, e.fileTimeout)
	defer cancel()

	normaliser, err := e.registry.ForMIMEType(file.MIMEType)
	if err != nil {
		return nil, domain.DocumentEntities{}, nil, err
	}

	doc, err := normaliser.Normalise(fileCtx, file)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrIngestionTimeout
		}
		return nil, domain.DocumentEntities{}, nil, err
	}
	doc.RunID = runID

	if err := e.runStore.SaveDocument(ctx, *doc); err != nil {
		return nil, domain.DocumentEntities{}, nil, err
	}

	chunks, err := e.processor.Process(fileCtx, doc)
	if err != nil {
		return nil, domain.DocumentEntities{}, nil, err
	}
	if err := e.runStore.SaveChunks(ctx, chunks); err != nil {
		return nil, domain.DocumentEntities{}, nil, err
	}

	entities, err := e.extractor.Extract(fileCtx, doc.ExtractedText)
	if err != nil {
		return nil, domain.DocumentEntities{}, nil, err
	}

	return doc, entities, chunks, nil
}

// retrieve embeds every chunk and searches the corpus index under a
// bounded worker pool. An embedding failure that survives retries
// aborts the run as a PartialFailureError carrying the mappings
// computed so far.
func (e *Evaluator) retrieve(
	ctx context.Context,
	runID string,
	chunks []domain.Chunk,
	snapshot *CorpusSnapshot,
) ([]domain.Mapping, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	logger.Section("Retrieval")
	retrieveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type chunkResult struct {
		vector   []float32
		mappings []domain.Mapping
		err      error
	}

	results := make([]chunkResult, len(chunks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vector, mappings, err := e.retrieveChunk(retrieveCtx, chunks[i], snapshot)
				results[i] = chunkResult{vector: vector, mappings: mappings, err: err}
				if err != nil {
					cancel()
				}
			}
		}()
	}

feed:
	for i := range chunks {
		select {
		case jobs <- i:
		case <-retrieveCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	vectors := make(map[string][]float32, len(chunks))
	//nolint:prealloc
	var mappings []domain.Mapping
	var failure error
	for i, result := range results {
		if result.err != nil && failure == nil {
			failure = fmt.Errorf("chunk %s: %w", chunks[i].ID, result.err)
		}
		if result.vector != nil {
			vectors[chunks[i].ID] = result.vector
		}
		mappings = append(mappings, result.mappings...)
	}

	sortMappings(mappings)

	if failure != nil {
		return nil, &domain.PartialFailureError{RunID: runID, Mappings: mappings, Err: failure}
	}

	if err := e.runStore.SaveEmbeddings(ctx, e.embedder.ModelVersion(), vectors); err != nil {
		return nil, fmt.Errorf("saving embeddings for run %s: %w", runID, err)
	}

	logger.Info("Retained %d mappings from %d chunks", len(mappings), len(chunks))
	return mappings, nil
}

// retrieveChunk embeds one chunk with retry and maps its nearest
// corpus neighbours above the similarity threshold.
func (e *Evaluator) retrieveChunk(
	ctx context.Context,
	chunk domain.Chunk,
	snapshot *CorpusSnapshot,
) ([]float32, []domain.Mapping, error) {
	vector, err := e.embedWithRetry(ctx, chunk.Text)
	if err != nil {
		return nil, nil, err
	}

	hits, err := snapshot.Index.Search(ctx, vector, e.topK)
	if err != nil {
		return vector, nil, fmt.Errorf("searching index: %w", err)
	}

	//nolint:prealloc
	var mappings []domain.Mapping
	for _, hit := range hits {
		if hit.Similarity < e.similarityThreshold {
			continue
		}
		articleID, ok := snapshot.ChunkArticle[hit.ChunkID]
		if !ok {
			continue
		}
		mappings = append(mappings, domain.Mapping{
			ID:              mappingID(chunk.ID, articleID),
			StartupChunkID:  chunk.ID,
			ArticleID:       articleID,
			SimilarityScore: hit.Similarity,
			EvidenceSnippet: chunk.Text,
			PageNumber:      chunk.PageNumber,
		})
	}
	return vector, mappings, nil
}

// embedWithRetry retries transient embedding failures with exponential
// backoff before giving up.
func (e *Evaluator) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.embedRetries; attempt++ {
		if attempt > 0 {
			delay := e.retryBaseDelay << (attempt - 1)
			logger.Debug("Embedding retry %d/%d after %v", attempt, e.embedRetries, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		vector, err := e.embedder.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			break
		}
	}
	return nil, lastErr
}

// dedupMappings collapses duplicate article mappings per the
// configured scope, keeping the highest-similarity instance. Ties keep
// the lower startup chunk ID.
func dedupMappings(mappings []domain.Mapping, scope domain.DedupScope, chunks []domain.Chunk) []domain.Mapping {
	chunkDoc := make(map[string]string, len(chunks))
	for _, chunk := range chunks {
		chunkDoc[chunk.ID] = chunk.DocumentID
	}

	best := make(map[string]domain.Mapping)
	for _, mapping := range mappings {
		key := mapping.ArticleID
		if scope == domain.DedupPerDocument {
			key = chunkDoc[mapping.StartupChunkID] + "|" + mapping.ArticleID
		}
		current, ok := best[key]
		if !ok || mapping.SimilarityScore > current.SimilarityScore ||
			(mapping.SimilarityScore == current.SimilarityScore && mapping.StartupChunkID < current.StartupChunkID) {
			best[key] = mapping
		}
	}

	deduped := make([]domain.Mapping, 0, len(best))
	for _, mapping := range best {
		deduped = append(deduped, mapping)
	}
	sortMappings(deduped)
	return deduped
}

// sortMappings orders mappings deterministically.
func sortMappings(mappings []domain.Mapping) {
	sort.Slice(mappings, func(i, j int) bool {
		a, b := mappings[i], mappings[j]
		if a.StartupChunkID != b.StartupChunkID {
			return a.StartupChunkID < b.StartupChunkID
		}
		return a.ArticleID < b.ArticleID
	})
}

// mappingID derives the deterministic mapping identifier.
func mappingID(startupChunkID, articleID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(startupChunkID+"|"+articleID)).String()
}

// inputFingerprint digests the submitted file set. Name order does not
// matter; content does.
func inputFingerprint(uploads []domain.FileUpload) string {
	sorted := make([]domain.FileUpload, len(uploads))
	copy(sorted, uploads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, file := range sorted {
		h.Write([]byte(file.Name))
		h.Write([]byte{0})
		h.Write(file.Content)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// includedCount counts documents that survived ingestion.
func includedCount(statuses []domain.DocumentStatus) int {
	count := 0
	for _, status := range statuses {
		if status.State == domain.IngestionIncluded {
			count++
		}
	}
	return count
}
