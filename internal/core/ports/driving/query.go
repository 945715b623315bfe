package driving

import (
	"context"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// QueryOptions configures a retrieval pipeline run.
type QueryOptions struct {
	// ConversationID continues an existing conversation when non-empty.
	// When empty a new conversation is created.
	ConversationID string

	// WithoutAnswer skips the generation stage and returns the ranked
	// evidence set only.
	WithoutAnswer bool
}

// QueryService answers natural-language questions about one document.
type QueryService interface {
	// Query runs the retrieval pipeline: embed the query, search the
	// vector index, re-rank, assemble citations and generate an answer
	// conditioned on prior conversation turns.
	//
	// Zero retrieved candidates is a successful empty result, not an
	// error.
	Query(ctx context.Context, documentID, query string, opts QueryOptions) (*domain.QueryResult, error)
}
