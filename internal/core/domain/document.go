package domain

import "time"

// Page is a single page of extracted document text.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text of the page.
	Text string
}

// Document represents an ingested document with its page map.
// It is immutable once ingested; removal happens only through
// explicit deletion of the document and all of its segments.
type Document struct {
	// ID is the unique identifier, generated at ingestion.
	ID string

	// SourceName is the original file name (e.g. "report.pdf").
	// It is what citations display as the document name.
	SourceName string

	// Pages is the ordered page map produced by text extraction.
	Pages []Page

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Text returns the full document text, pages joined in order.
func (d *Document) Text() string {
	var out string
	for i, p := range d.Pages {
		if i > 0 {
			out += "\n\n"
		}
		out += p.Text
	}
	return out
}

// TextSegment is a retrievable unit of document text.
// Segments are produced by a chunking strategy and embedded for search.
type TextSegment struct {
	// ID is unique within the owning document.
	ID string

	// DocumentID is a non-owning back-reference to the document.
	DocumentID string

	// Text is the segment content.
	Text string

	// PageNumber is the 1-based page the segment starts on.
	// Zero means the page is unknown.
	PageNumber int

	// ParentID links a child segment to the higher-level unit it was
	// split from under the hierarchical strategy. Empty for root
	// segments and for all segments under the semantic strategy.
	ParentID string

	// OrderIndex defines reading order within the document.
	// It is strictly increasing and contiguous from zero.
	OrderIndex int
}

// EmbeddingVector is the vector representation of one segment under one
// embedding model. Vectors are created once per (segment, model) and are
// regenerated, never mutated, when the model identity changes. Vectors
// produced by different models must never be compared against each other.
type EmbeddingVector struct {
	// SegmentID is the owning segment.
	SegmentID string

	// Model is the embedding model identity that produced Values.
	Model string

	// Values is the fixed-length vector. The dimension is fixed per
	// model identity.
	Values []float32
}
