package driven

import "context"

// RerankCandidate is one segment to be scored against a query.
type RerankCandidate struct {
	// SegmentID maps the result back to the candidate.
	SegmentID string

	// Text is the segment content to score.
	Text string
}

// RerankResult is one scored candidate.
type RerankResult struct {
	// SegmentID matches the candidate.
	SegmentID string

	// Score is the cross-encoder relevance score. Unbounded; only
	// comparable within one batch.
	Score float64
}

// Reranker scores (query, segment text) pairs with a cross-encoding model.
// Scoring is pure: it depends only on the pair, never on vector scores.
//
// Partial-failure contract: a candidate whose scoring fails is omitted
// from the result rather than aborting the batch. An error return means
// the whole batch failed and the caller should fall back to first-stage
// ordering.
type Reranker interface {
	// Rerank scores candidates against the query.
	// Results are sorted by score descending and may be shorter than
	// the input when individual candidates failed. No candidates are
	// invented.
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)

	// ModelName returns the cross-encoder model identity.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
