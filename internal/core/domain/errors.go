package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file MIME type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates a submitted file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrEmbeddingUnavailable indicates the embedding service failed.
	// Embedding calls are retried with backoff up to a bounded attempt
	// count before the run fails as a PartialFailure.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIngestionTimeout indicates extraction or embedding exceeded its
	// deadline. Recoverable: the caller may resubmit the document.
	ErrIngestionTimeout = errors.New("ingestion timed out")

	// ErrReindexInProgress indicates a corpus rebuild is already running.
	// Reindexing operations never run concurrently.
	ErrReindexInProgress = errors.New("corpus reindex in progress")

	// ErrNoCorpus indicates no corpus revision has been built yet.
	ErrNoCorpus = errors.New("no corpus revision available")

	// ErrRunNotSubmitted indicates evaluation was requested for a run
	// with no accepted documents.
	ErrRunNotSubmitted = errors.New("run has no submitted documents")
)

// ExtractionError reports a corrupt or unsupported file. It is surfaced
// per file and does not abort the run; the run proceeds with the
// remaining valid documents.
type ExtractionError struct {
	// File is the submitted file name.
	File string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports invalid weights or thresholds. Fatal at
// startup; configuration is never silently defaulted.
type ConfigurationError struct {
	// Field is the configuration key at fault.
	Field string

	// Reason explains the violation.
	Reason string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

// PartialFailureError reports an evaluation run that failed after some
// work completed. The mappings computed before the failure are retained
// so the caller can inspect partial progress.
type PartialFailureError struct {
	// RunID is the failed run.
	RunID string

	// Mappings are the associations computed before the failure.
	Mappings []Mapping

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("run %s failed after %d mappings: %v", e.RunID, len(e.Mappings), e.Err)
}

// Unwrap returns the underlying cause.
func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
