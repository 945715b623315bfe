package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Embedding is deterministic given (text, model identity) and has no side
// effects; model loading is an adapter construction concern.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Fails with domain.ErrEmptyText on empty input and
	// domain.ErrTextTooLong on input exceeding the model limit;
	// callers must truncate or reject before calling.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The result is ordered and aligned with the input slice.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is fixed per model identity and must match VectorIndex
	// configuration.
	Dimensions() int

	// ModelName returns the model identity. Vectors produced under
	// different model identities must never be mixed in one similarity
	// comparison.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
