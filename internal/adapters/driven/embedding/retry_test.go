package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// flakyEmbedder fails a set number of times before succeeding.
type flakyEmbedder struct {
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vec, err := f.Embed(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = vec
	}
	return out, nil
}

func (f *flakyEmbedder) Dimensions() int { return 2 }

func (f *flakyEmbedder) ModelName() string { return "flaky" }

func (f *flakyEmbedder) Ping(_ context.Context) error { return nil }

func (f *flakyEmbedder) Close() error { return nil }

func newFastRetrying(inner *flakyEmbedder, maxRetries int) *Retrying {
	return &Retrying{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  time.Millisecond,
		maxDelay:   2 * time.Millisecond,
	}
}

func TestRetryingRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: errors.New("connection reset")}
	svc := newFastRetrying(inner, 3)

	vec, err := svc.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingGivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: errors.New("connection reset")}
	svc := newFastRetrying(inner, 2)

	_, err := svc.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls) // initial attempt plus two retries
}

func TestRetryingDoesNotRetryContractViolations(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: domain.ErrEmptyText}
	svc := newFastRetrying(inner, 3)

	_, err := svc.Embed(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyText)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryingBatch(t *testing.T) {
	inner := &flakyEmbedder{failures: 1, err: errors.New("timeout")}
	svc := newFastRetrying(inner, 3)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestNewRetryingPassthrough(t *testing.T) {
	inner := &flakyEmbedder{}
	assert.Equal(t, inner, NewRetrying(inner, 0))
}

func TestNewRateLimitedPassthrough(t *testing.T) {
	inner := &flakyEmbedder{}
	assert.Equal(t, inner, NewRateLimited(inner, 0))
}

func TestRateLimitedDelegates(t *testing.T) {
	inner := &flakyEmbedder{}
	svc := NewRateLimited(inner, 100)

	vec, err := svc.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "flaky", svc.ModelName())
}
