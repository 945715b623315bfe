package driving

import (
	"context"
	"time"
)

// IngestionService turns raw files into queryable documents.
type IngestionService interface {
	// Ingest extracts, chunks, embeds and indexes one document.
	// The document is queryable only after Ingest returns successfully;
	// a failed ingestion leaves no partial state visible.
	Ingest(ctx context.Context, content []byte, fileName string) (*IngestResult, error)

	// Delete removes a document, its segments and its vectors.
	Delete(ctx context.Context, documentID string) error

	// List returns metadata for all ingested documents.
	List(ctx context.Context) ([]DocumentInfo, error)
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	// DocumentID is the generated document identifier.
	DocumentID string

	// SegmentCount is how many segments were indexed.
	SegmentCount int

	// PageCount is how many pages extraction produced.
	PageCount int
}

// DocumentInfo is a display view of an ingested document.
type DocumentInfo struct {
	// ID is the document identifier.
	ID string

	// SourceName is the original file name.
	SourceName string

	// PageCount is the number of extracted pages.
	PageCount int

	// SegmentCount is the number of indexed segments.
	SegmentCount int

	// Ready reports whether the document is queryable.
	Ready bool

	// CreatedAt is the ingestion time.
	CreatedAt time.Time
}
