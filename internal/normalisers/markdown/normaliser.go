// Package markdown normalises Markdown uploads, simplifying formatting
// to plain text before chunking and extraction.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
	"github.com/custodia-labs/regready/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Normalise converts a markdown upload to a Document with formatting
// stripped. Horizontal rules act as page separators so evidence
// citations keep a usable page number for markdown sources.
func (n *Normaliser) Normalise(_ context.Context, file *domain.FileUpload) (*domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(file.Content) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidInput)
	}

	plain := StripMarkdown(string(file.Content))
	text, pages := plaintext.SplitPages(plain)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}

	return &domain.Document{
		ID:            plaintext.DocumentID(file),
		RunID:         file.RunID,
		SourceFileRef: file.Name,
		MIMEType:      file.MIMEType,
		ExtractedText: text,
		Pages:         pages,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

var (
	codeBlockRe    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe   = regexp.MustCompile("`[^`]+`")
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe   = regexp.MustCompile(`(?m)^>\s*`)
	hrRe           = regexp.MustCompile(`(?m)^[-*]{3,}\s*$`)
	listMarkerRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes common markdown formatting for plain text
// content. Horizontal rules become form feeds so the page splitter can
// pick them up.
func StripMarkdown(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = blockquoteRe.ReplaceAllString(content, "")
	content = hrRe.ReplaceAllString(content, "\f")
	content = listMarkerRe.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	content = multiNewlineRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
