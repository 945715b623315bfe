package driven

import "context"

// VectorEntry is one segment vector with its filterable metadata.
type VectorEntry struct {
	// DocumentID is the owning document.
	DocumentID string

	// SegmentID identifies the segment. Upserting the same SegmentID
	// replaces the previous entry.
	SegmentID string

	// Model is the embedding model identity that produced Vector.
	Model string

	// Vector is the embedding values.
	Vector []float32

	// Metadata holds arbitrary equality-filterable attributes.
	Metadata map[string]string
}

// VectorFilter restricts a similarity query.
type VectorFilter struct {
	// DocumentID restricts to one document when non-empty.
	DocumentID string

	// Model restricts to vectors produced by one model identity.
	// The pipeline always sets it to the active embedder's identity so
	// stale vectors from a prior model are never compared.
	Model string

	// Metadata entries must all match exactly.
	Metadata map[string]string
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// SegmentID is the matched segment.
	SegmentID string

	// Score is the cosine similarity, in [-1, 1].
	Score float64
}

// VectorIndex stores segment vectors and answers similarity queries.
//
// Concurrency: queries must not block on or be corrupted by concurrent
// writes to a different document; writes to the same document serialize.
type VectorIndex interface {
	// Upsert stores entries atomically per segment ID. Re-upserting a
	// segment ID replaces its vector and metadata; duplicates are never
	// produced.
	Upsert(ctx context.Context, entries []VectorEntry) error

	// Query returns up to topN hits sorted by descending cosine
	// similarity, ties broken by insertion order. Fewer than topN hits
	// are returned when fewer candidates match; an empty result is not
	// an error.
	Query(ctx context.Context, vector []float32, topN int, filter VectorFilter) ([]VectorHit, error)

	// DeleteDocument removes all entries for the document. The removal
	// is all-or-nothing: concurrent queries never observe a partial
	// deletion.
	DeleteDocument(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}
