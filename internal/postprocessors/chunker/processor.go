// Package chunker provides a page-aware sliding-window text chunker.
package chunker

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// DefaultWindowSize is the default number of characters per chunk.
const DefaultWindowSize = 1000

// DefaultOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultOverlap = 200

// Processor splits document text into overlapping chunks. Consecutive
// chunks share the last overlap characters of the previous chunk, so
// statements straddling a window boundary keep their context.
type Processor struct {
	windowSize int
	overlap    int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithWindowSize sets the window size in characters.
func WithWindowSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.windowSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		windowSize: DefaultWindowSize,
		overlap:    DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must stay strictly below the window size
	if p.overlap >= p.windowSize {
		p.overlap = p.windowSize / 4
	}

	return p
}

// WindowSize returns the configured window size.
func (p *Processor) WindowSize() int {
	return p.windowSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document's extracted text into chunks covering the
// entire input. A document shorter than the window yields exactly one
// chunk; empty input yields an empty sequence.
func (p *Processor) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	content := doc.ExtractedText
	if content == "" {
		return nil, nil
	}

	contentLen := len(content)
	stride := p.windowSize - p.overlap

	chunks := make([]domain.Chunk, 0, contentLen/stride+1)
	ordinal := 0

	for start := 0; start < contentLen; start += stride {
		end := start + p.windowSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:              ChunkID(doc.ID, ordinal),
			DocumentID:      doc.ID,
			Ordinal:         ordinal,
			Text:            content[start:end],
			PageNumber:      pageAt(doc.Pages, start),
			CharOffsetStart: start,
			CharOffsetEnd:   end,
		})
		ordinal++

		if end == contentLen {
			break
		}
	}

	return chunks, nil
}

// ChunkID derives the deterministic chunk identifier for a document
// ordinal. Stable IDs keep repeated evaluations of unchanged input
// byte-identical.
func ChunkID(documentID string, ordinal int) string {
	name := documentID + "#" + strconv.Itoa(ordinal)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// pageAt returns the page number covering the given character offset.
// Each chunk records the page it starts on as its single page origin.
func pageAt(pages []domain.Page, offset int) int {
	page := 1
	for _, p := range pages {
		if p.CharOffset > offset {
			break
		}
		page = p.Number
	}
	return page
}
