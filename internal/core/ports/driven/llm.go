package driven

import (
	"context"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// Generator synthesizes an answer from the query and the evidence set.
// It is the external generation collaborator: the pipeline supplies
// evidence text plus citation metadata, and the generator grounds the
// answer in that evidence. It must never be asked to fabricate citations
// the pipeline did not provide.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI-compatible chat APIs
type Generator interface {
	// GenerateAnswer produces an answer grounded in the evidence set,
	// optionally conditioned on prior conversation turns.
	GenerateAnswer(ctx context.Context, query string, evidence []domain.Evidence, history []domain.Turn) (string, error)

	// ModelName returns the generation model identity.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
