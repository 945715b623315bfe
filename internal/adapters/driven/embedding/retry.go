package embedding

import (
	"context"
	"math/rand"
	"time"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
	"github.com/custodia-labs/docq/internal/logger"
)

// Ensure Retrying implements the interface.
var _ driven.EmbeddingService = (*Retrying)(nil)

// Backoff defaults.
const (
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 8 * time.Second
)

// Retrying wraps an embedding service and retries transient failures with
// exponential backoff and jitter. Contract violations (empty text, text
// too long, invalid input) are never retried.
type Retrying struct {
	inner      driven.EmbeddingService
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetrying wraps inner with up to maxRetries additional attempts.
// A non-positive maxRetries returns inner unchanged.
func NewRetrying(inner driven.EmbeddingService, maxRetries int) driven.EmbeddingService {
	if maxRetries <= 0 {
		return inner
	}
	return &Retrying{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
}

// do runs fn with retries. It stops on success, a non-retryable error, or
// context cancellation.
func (s *Retrying) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !domain.Retryable(err) || attempt == s.maxRetries {
			return err
		}

		delay := s.baseDelay << attempt
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
		// Full jitter keeps concurrent clients from retrying in step.
		delay = time.Duration(rand.Int63n(int64(delay)) + 1)
		logger.Debug("%s attempt %d failed, retrying in %v: %v", op, attempt+1, delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Embed delegates with retries.
func (s *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.do(ctx, "embed", func() error {
		var innerErr error
		vec, innerErr = s.inner.Embed(ctx, text)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch delegates with retries. The whole batch is retried; inner
// services are expected to be idempotent.
func (s *Retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := s.do(ctx, "embed batch", func() error {
		var innerErr error
		vecs, innerErr = s.inner.EmbedBatch(ctx, texts)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// Dimensions returns the inner service's vector size.
func (s *Retrying) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model identity.
func (s *Retrying) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates without retries.
func (s *Retrying) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *Retrying) Close() error {
	return s.inner.Close()
}
