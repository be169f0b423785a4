package driven

import (
	"context"

	"github.com/custodia-labs/regready/internal/core/domain"
)

// Normaliser converts a raw uploaded file into a normalised Document
// with page and offset metadata.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise converts the raw file. A corrupt file returns an error;
	// the caller surfaces it per file without aborting the run.
	Normalise(ctx context.Context, file *domain.FileUpload) (*domain.Document, error)
}

// NormaliserRegistry selects a normaliser for a MIME type.
type NormaliserRegistry interface {
	// ForMIMEType returns the normaliser for the given MIME type, or
	// domain.ErrUnsupportedType when none is registered.
	ForMIMEType(mimeType string) (Normaliser, error)

	// SupportedMIMETypes returns all MIME types with a registered
	// normaliser.
	SupportedMIMETypes() []string
}
