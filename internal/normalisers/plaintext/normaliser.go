// Package plaintext normalises plain text uploads. Form feed characters
// are treated as page separators, matching the convention of common
// text extraction tools.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
	}
}

// Normalise converts a raw upload to a Document with page metadata.
func (n *Normaliser) Normalise(_ context.Context, file *domain.FileUpload) (*domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(file.Content) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidInput)
	}

	text, pages := SplitPages(string(file.Content))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}

	return &domain.Document{
		ID:            DocumentID(file),
		RunID:         file.RunID,
		SourceFileRef: file.Name,
		MIMEType:      file.MIMEType,
		ExtractedText: text,
		Pages:         pages,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// DocumentID derives a deterministic document identifier from the run,
// file name and content, so re-evaluating unchanged input reproduces
// the same IDs.
func DocumentID(file *domain.FileUpload) string {
	name := file.RunID + "/" + file.Name
	return uuid.NewSHA1(uuid.NameSpaceURL, append([]byte(name+"\x00"), file.Content...)).String()
}

// SplitPages splits raw text on form feeds into pages and returns the
// joined normalised text together with page offsets into it.
func SplitPages(raw string) (string, []domain.Page) {
	parts := strings.Split(raw, "\f")

	var sb strings.Builder
	pages := make([]domain.Page, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			sb.WriteString("\n")
		}
		pages = append(pages, domain.Page{
			Number:     i + 1,
			Text:       part,
			CharOffset: sb.Len(),
		})
		sb.WriteString(part)
	}
	return sb.String(), pages
}
