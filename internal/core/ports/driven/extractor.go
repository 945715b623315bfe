package driven

import (
	"context"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// Extractor turns raw file bytes into a Document with a populated page
// map. It is the text-extraction collaborator boundary: format parsing and
// OCR happen behind it.
//
// Failures surface as *domain.ExtractionError with a reason code
// (unsupported_format, corrupt_file, ocr_unavailable). Extraction failures
// are per-document and never retried.
type Extractor interface {
	// Extract parses content and returns a document with pages
	// populated. The caller assigns the document ID and source name
	// before persisting.
	Extract(ctx context.Context, content []byte, fileType string) (*domain.Document, error)

	// SupportedTypes returns the file extensions this extractor
	// handles, without the leading dot.
	SupportedTypes() []string
}
