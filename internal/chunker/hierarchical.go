package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// Split levels, coarse to fine.
const (
	levelSection = iota
	levelParagraph
	levelSentence
)

// Hierarchical splits on structural boundaries (section > paragraph >
// sentence) until each segment fits maxTokens. Segments produced by
// splitting a structural unit carry a ParentID naming that unit, which
// forms the parent lookup key of the segment tree. When a run of
// sentences must be hard-split, adjacent siblings share overlapTokens of
// trailing/leading text. A single sentence exceeding maxTokens is emitted
// as one oversized segment; text is never dropped.
type Hierarchical struct {
	maxTokens     int
	overlapTokens int
}

// NewHierarchical creates a hierarchical chunker.
func NewHierarchical(settings domain.ChunkingSettings) *Hierarchical {
	return &Hierarchical{
		maxTokens:     settings.MaxTokens,
		overlapTokens: settings.OverlapTokens,
	}
}

// piece is an intermediate segment before IDs and pages are assigned.
type piece struct {
	// text is the emitted segment content, including any leading
	// overlap.
	text string

	// core is the segment content without the leading overlap. Used
	// for page location and overlap derivation.
	core string

	// parentID is the structural unit this piece was split from, or
	// empty for pieces that fit without splitting.
	parentID string
}

// Chunk implements the Chunker interface.
func (h *Hierarchical) Chunk(_ context.Context, doc *domain.Document) ([]domain.TextSegment, error) {
	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return nil, nil
	}

	b := &hierarchicalBuilder{chunker: h, documentID: doc.ID}
	pieces := b.split(text, levelSection, "")

	locator := newPageLocator(doc)
	segments := make([]domain.TextSegment, 0, len(pieces))
	for i, p := range pieces {
		segments = append(segments, domain.TextSegment{
			ID:         segmentID(doc.ID, i),
			DocumentID: doc.ID,
			Text:       p.text,
			PageNumber: locator.locate(locateProbe(p.core)),
			ParentID:   p.parentID,
			OrderIndex: i,
		})
	}
	return segments, nil
}

// hierarchicalBuilder tracks parent unit numbering during one Chunk call.
type hierarchicalBuilder struct {
	chunker    *Hierarchical
	documentID string
	unitSeq    int
}

// nextParentID mints the ID for a structural unit that is being split.
func (b *hierarchicalBuilder) nextParentID() string {
	id := parentID(b.documentID, b.unitSeq)
	b.unitSeq++
	return id
}

// split recursively breaks text until every piece fits maxTokens.
// parent is the ID of the unit this text was split from, empty at the
// document root.
func (b *hierarchicalBuilder) split(text string, level int, parent string) []piece {
	if countTokens(text) <= b.chunker.maxTokens {
		return []piece{{text: text, core: text, parentID: parent}}
	}

	if level == levelSentence {
		return b.hardSplit(text, parent)
	}

	parts := b.partsAt(text, level)
	if len(parts) <= 1 {
		return b.split(text, level+1, parent)
	}

	merged := mergeUnits(parts, b.chunker.maxTokens, "\n\n")
	if len(merged) <= 1 {
		return b.split(text, level+1, parent)
	}

	// This unit is being split: it becomes the parent of everything
	// emitted beneath it.
	myID := b.nextParentID()
	var out []piece
	for _, m := range merged {
		out = append(out, b.split(m, level+1, myID)...)
	}
	return out
}

// partsAt applies the structural splitter for the level.
func (b *hierarchicalBuilder) partsAt(text string, level int) []string {
	switch level {
	case levelSection:
		return splitSections(text)
	default:
		return splitParagraphs(text)
	}
}

// hardSplit breaks an oversized run of sentences into groups, linking
// adjacent groups with overlapTokens of shared text. The first group may
// use the full budget; later groups reserve room for the overlap prefix
// so no emitted segment exceeds maxTokens. A single oversized sentence is
// emitted whole.
func (b *hierarchicalBuilder) hardSplit(text string, parent string) []piece {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		// Oversized single sentence: emit as-is rather than drop text.
		return []piece{{text: text, core: text, parentID: parent}}
	}

	maxTokens := b.chunker.maxTokens
	overlap := b.chunker.overlapTokens

	myID := b.nextParentID()
	var cores []string
	budget := maxTokens
	var current []string
	currentTokens := 0

	for _, s := range sentences {
		tokens := countTokens(s)
		if len(current) > 0 && currentTokens+tokens > budget {
			cores = append(cores, strings.Join(current, " "))
			current = nil
			currentTokens = 0
			budget = maxTokens - overlap
		}
		current = append(current, s)
		currentTokens += tokens
	}
	if len(current) > 0 {
		cores = append(cores, strings.Join(current, " "))
	}

	pieces := make([]piece, 0, len(cores))
	for i, core := range cores {
		text := core
		if i > 0 && overlap > 0 {
			// A core can exceed the reduced budget when a single
			// sentence is larger than maxTokens-overlap. Trim the
			// overlap so the emitted text stays within maxTokens.
			n := overlap
			if room := maxTokens - countTokens(core); room < n {
				n = room
			}
			if prefix := lastTokens(cores[i-1], n); prefix != "" {
				text = prefix + " " + core
			}
		}
		pieces = append(pieces, piece{text: text, core: core, parentID: myID})
	}
	return pieces
}

// locateProbe picks the leading sentence of a core as the page lookup
// probe, keeping it inside one primitive unit of the original text.
func locateProbe(core string) string {
	sentences := splitSentences(core)
	if len(sentences) == 0 {
		return core
	}
	return sentences[0]
}
