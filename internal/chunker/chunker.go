// Package chunker splits extracted documents into retrievable text
// segments. Two interchangeable strategies are provided: hierarchical
// (structure-aware, parent/child links) and semantic (embedding-similarity
// guided sentence merging).
//
// Both strategies guarantee: no segment is empty, no input token is lost,
// and OrderIndex is strictly increasing and contiguous within a document.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Chunker splits a document into an ordered sequence of text segments.
type Chunker interface {
	// Chunk produces the segments for the document. Segment IDs are
	// deterministic per (document, order index) so re-chunking the same
	// document replaces rather than duplicates its segments.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.TextSegment, error)
}

// New selects the chunking strategy from settings. The embedding service
// is only consulted by the semantic strategy; it may be nil for the
// hierarchical one.
func New(settings domain.ChunkingSettings, embedder driven.EmbeddingService) (Chunker, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("chunking settings: %w", err)
	}

	switch settings.Strategy {
	case domain.ChunkStrategyHierarchical:
		return NewHierarchical(settings), nil
	case domain.ChunkStrategySemantic:
		if embedder == nil {
			return nil, fmt.Errorf("semantic chunking: %w", domain.ErrEmbeddingUnavailable)
		}
		return NewSemantic(settings, embedder), nil
	default:
		return nil, fmt.Errorf("chunking strategy %q: %w", settings.Strategy, domain.ErrInvalidInput)
	}
}

// segmentID returns the deterministic ID for the segment at orderIndex.
func segmentID(documentID string, orderIndex int) string {
	return fmt.Sprintf("%s:s%d", documentID, orderIndex)
}

// parentID returns the deterministic ID for the k-th structural parent
// unit of the document.
func parentID(documentID string, k int) string {
	return fmt.Sprintf("%s:p%d", documentID, k)
}

// pageLocator maps text positions back to page numbers. It walks the
// concatenated document text with a cursor, so lookups must happen in
// reading order.
type pageLocator struct {
	text   string
	starts []int // byte offset where each page begins
	pages  []int // page number for each start
	cursor int
}

func newPageLocator(doc *domain.Document) *pageLocator {
	l := &pageLocator{text: doc.Text()}
	offset := 0
	for i, p := range doc.Pages {
		if i > 0 {
			offset += len("\n\n")
		}
		l.starts = append(l.starts, offset)
		l.pages = append(l.pages, p.Number)
		offset += len(p.Text)
	}
	return l
}

// locate returns the page number the given snippet starts on, or zero
// when the snippet cannot be found. Snippets must be presented in
// document order.
func (l *pageLocator) locate(snippet string) int {
	probe := snippet
	if len(probe) > 64 {
		probe = probe[:64]
	}
	probe = strings.TrimSpace(probe)
	if probe == "" {
		return 0
	}

	idx := strings.Index(l.text[l.cursor:], probe)
	if idx < 0 {
		// Retry from the top in case merging re-ordered whitespace.
		idx = strings.Index(l.text, probe)
		if idx < 0 {
			return 0
		}
		l.cursor = 0
	}
	pos := l.cursor + idx
	l.cursor = pos

	page := 0
	for i, start := range l.starts {
		if pos >= start {
			page = l.pages[i]
		}
	}
	return page
}
