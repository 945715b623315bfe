package domain

import (
	"context"
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

	// ErrEmptyText indicates an empty string was passed where text is
	// required (embedding, re-ranking). The caller must filter empty
	// input before calling; this is never retried.
	ErrEmptyText = errors.New("empty text")

	// ErrTextTooLong indicates text exceeds the embedding model's
	// maximum input length. The caller must truncate or reject before
	// calling; this is never retried.
	ErrTextTooLong = errors.New("text exceeds model input limit")

	// ErrDimensionMismatch indicates a vector does not match the index
	// dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStorageUnavailable indicates the backing store cannot be
	// reached. Unlike ErrNotFound it is fatal for the request.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDocumentNotReady indicates ingestion for the document has not
	// completed. Partially ingested documents are never queryable.
	ErrDocumentNotReady = errors.New("document not ready")

	// ErrRerankFailed indicates scoring failed for every candidate in a
	// re-rank batch. The pipeline degrades to vector-score ordering.
	ErrRerankFailed = errors.New("reranking failed for all candidates")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service is not
	// configured or unreachable.
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)

// ExtractionReason classifies why text extraction failed.
type ExtractionReason string

// Extraction failure reason codes.
const (
	ExtractionUnsupportedFormat ExtractionReason = "unsupported_format"
	ExtractionCorruptFile       ExtractionReason = "corrupt_file"
	ExtractionOCRUnavailable    ExtractionReason = "ocr_unavailable"
)

// ExtractionError reports a per-document extraction failure.
// It is unrecoverable for the document and is never retried.
type ExtractionError struct {
	// Reason is the failure classification.
	Reason ExtractionReason

	// Detail is a human-readable explanation.
	Detail string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("extraction failed: %s", e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s: %s", e.Reason, e.Detail)
}

// Stage identifies a step of the retrieval pipeline state machine.
type Stage string

// Pipeline stages, in execution order.
const (
	StageEmbeddingQuery   Stage = "embedding_query"
	StageVectorSearch     Stage = "vector_search"
	StageReranking        Stage = "reranking"
	StageCitationAssembly Stage = "citation_assembly"
	StageGeneration       Stage = "generation"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// StageError wraps a failure with the pipeline stage it occurred in.
type StageError struct {
	// Stage is where the pipeline failed.
	Stage Stage

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the stage failed by exceeding its deadline.
// Timed-out stages are idempotent and safe to retry with the same inputs.
func (e *StageError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Retryable reports whether the caller may retry the request.
// Contract violations (empty text, oversized text, bad input) are not
// retryable; timeouts and transient service failures are.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrTextTooLong),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, context.Canceled):
		return false
	}
	var extractErr *ExtractionError
	return !errors.As(err, &extractErr)
}
