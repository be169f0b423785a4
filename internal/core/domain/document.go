package domain

import "time"

// Document is the canonical representation of an uploaded business document
// after extraction. It is created on ingestion and immutable thereafter;
// re-running an evaluation produces new Documents rather than mutating these.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// RunID links to the evaluation run that ingested this document.
	RunID string

	// SourceFileRef is the original file name as submitted.
	SourceFileRef string

	// MIMEType is the declared media type of the source file.
	MIMEType string

	// ExtractedText is the full normalised text content.
	// This is the complete document text before chunking.
	ExtractedText string

	// Pages is the ordered page breakdown of ExtractedText.
	Pages []Page

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Page is one page of extracted text with its offset into the
// document's full extracted text.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page content.
	Text string

	// CharOffset is the offset of Text within Document.ExtractedText.
	CharOffset int
}

// Chunk is a bounded span of normalised text with stable identity,
// the unit of embedding and retrieval. Chunks from one document are
// unique in ordinal but may overlap in character range (sliding window).
// Each chunk records exactly one page origin.
type Chunk struct {
	// ID is the unique identifier for the chunk. It is derived
	// deterministically from the document ID and ordinal so repeated
	// evaluations of unchanged input produce identical chunk IDs.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Ordinal is the position within the document.
	Ordinal int

	// Text is the chunk content.
	Text string

	// PageNumber is the page the chunk starts on.
	PageNumber int

	// CharOffsetStart is the chunk's start offset in the document text.
	CharOffsetStart int

	// CharOffsetEnd is the chunk's end offset (exclusive).
	CharOffsetEnd int
}

// FileUpload is a raw file submitted through the ingestion boundary,
// before extraction.
type FileUpload struct {
	// RunID is the evaluation run the file belongs to.
	RunID string

	// Name is the submitted file name.
	Name string

	// MIMEType is the declared media type.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte
}

// FileReceipt records the accept/reject outcome for one submitted file.
type FileReceipt struct {
	// Name is the submitted file name.
	Name string

	// Accepted reports whether the file passed admission checks.
	Accepted bool

	// Reason explains a rejection. Empty when accepted.
	Reason string
}
