package domain

// RetrievalCandidate is a query-scoped scored reference to a segment.
// Candidates are transient and never persisted.
type RetrievalCandidate struct {
	// SegmentID identifies the candidate segment.
	SegmentID string

	// VectorScore is the cosine similarity between the query embedding
	// and the segment embedding, in [-1, 1].
	VectorScore float64

	// RerankScore is the cross-encoder relevance score. Unbounded.
	// Only meaningful when RerankOK is true.
	RerankScore float64

	// RerankOK reports whether re-ranking produced a score for this
	// candidate. Candidates that failed scoring are excluded from the
	// re-ranked ordering rather than aborting the batch.
	RerankOK bool

	// FinalRank is the 0-based position assigned after re-ranking.
	FinalRank int
}

// Citation is a (page, document) provenance pointer. It is always derived
// from the segment and document it points at, never stored independently.
type Citation struct {
	// PageNumber is the 1-based page. Zero when the page is unknown.
	PageNumber int `json:"page"`

	// DocumentName is the source name of the cited document.
	DocumentName string `json:"document_name"`
}

// Evidence is one selected segment with its provenance and scores,
// ready to be handed to the generation collaborator.
type Evidence struct {
	// Segment is the selected text segment.
	Segment TextSegment

	// Citation is derived from the segment and its document.
	Citation Citation

	// VectorScore is the first-stage cosine similarity.
	VectorScore float64

	// RerankScore is the second-stage cross-encoder score.
	// Only meaningful when Reranked is true.
	RerankScore float64

	// Reranked reports whether the rerank score was computed.
	Reranked bool

	// FinalRank is the 0-based position in the evidence set.
	FinalRank int
}

// QueryResult is the outcome of a successful pipeline run.
// A run that finds no relevant content is still a success: Empty is true,
// Evidence and Citations are empty, and Answer carries the no-content text.
type QueryResult struct {
	// Answer is the generated answer text.
	Answer string

	// Evidence is the ranked, citation-annotated evidence set.
	Evidence []Evidence

	// Citations are the deduplicated citations, in evidence rank order.
	Citations []Citation

	// ConversationID identifies the conversation this turn belongs to.
	ConversationID string

	// Empty reports that retrieval found no relevant content.
	Empty bool
}

// DedupeCitations derives citations from the evidence set, removing
// duplicates that share the same (page, document name). The occurrence at
// the highest evidence rank keeps its position.
func DedupeCitations(evidence []Evidence) []Citation {
	seen := make(map[Citation]bool, len(evidence))
	citations := make([]Citation, 0, len(evidence))
	for _, ev := range evidence {
		if seen[ev.Citation] {
			continue
		}
		seen[ev.Citation] = true
		citations = append(citations, ev.Citation)
	}
	return citations
}
