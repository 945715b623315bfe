// Package embedding provides decorators shared by the embedding service
// adapters: request rate limiting and retry with backoff.
package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimited wraps an embedding service with a token-bucket limiter so
// cloud API quotas are not exceeded during bulk ingestion.
type RateLimited struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimited wraps inner, allowing requestsPerSecond sustained
// requests with a burst of one. A non-positive rate returns inner
// unchanged.
func NewRateLimited(inner driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return inner
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Embed waits for a token, then delegates.
func (s *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token, then delegates. A batch counts as one
// request: providers meter per call, not per input.
func (s *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the inner service's vector size.
func (s *RateLimited) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model identity.
func (s *RateLimited) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates without consuming a token.
func (s *RateLimited) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *RateLimited) Close() error {
	return s.inner.Close()
}
