package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

func entryFor(docID, segID, model string, vec []float32) driven.VectorEntry {
	return driven.VectorEntry{DocumentID: docID, SegmentID: segID, Model: model, Vector: vec}
}

func TestIndexQueryOrdersByCosineSimilarity(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		entryFor("doc1", "s0", "m", []float32{0, 1}),
		entryFor("doc1", "s1", "m", []float32{1, 0}),
		entryFor("doc1", "s2", "m", []float32{0.9, 0.1}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 3, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "s1", hits[0].SegmentID)
	assert.Equal(t, "s2", hits[1].SegmentID)
	assert.Equal(t, "s0", hits[2].SegmentID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-9)
}

func TestIndexQueryTopNAndEmptyResult(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		entryFor("doc1", "s0", "m", []float32{1, 0}),
		entryFor("doc1", "s1", "m", []float32{0, 1}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 1, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = idx.Query(ctx, []float32{1, 0}, 5, driven.VectorFilter{DocumentID: "other"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexQueryStableTieBreak(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	// Identical vectors: identical scores, insertion order decides.
	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		entryFor("doc1", "first", "m", []float32{1, 0}),
		entryFor("doc1", "second", "m", []float32{1, 0}),
		entryFor("doc1", "third", "m", []float32{1, 0}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 3, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].SegmentID)
	assert.Equal(t, "second", hits[1].SegmentID)
	assert.Equal(t, "third", hits[2].SegmentID)
}

func TestIndexUpsertReplaces(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{entryFor("doc1", "s0", "m", []float32{1, 0})}))
	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{entryFor("doc1", "s0", "m", []float32{0, 1})}))

	hits, err := idx.Query(ctx, []float32{0, 1}, 10, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestIndexFiltersByModelAndDocument(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		entryFor("doc1", "s0", "old-model", []float32{1, 0}),
		entryFor("doc1", "s1", "new-model", []float32{1, 0}),
		entryFor("doc2", "s2", "new-model", []float32{1, 0}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, driven.VectorFilter{DocumentID: "doc1", Model: "new-model"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].SegmentID)
}

func TestIndexDimensionMismatch(t *testing.T) {
	idx := NewIndex(3)
	ctx := context.Background()

	err := idx.Upsert(ctx, []driven.VectorEntry{entryFor("doc1", "s0", "m", []float32{1, 0})})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Query(ctx, []float32{1, 0}, 5, driven.VectorFilter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexDeleteDocument(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		entryFor("doc1", "s0", "m", []float32{1, 0}),
		entryFor("doc2", "s1", "m", []float32{1, 0}),
	}))
	require.NoError(t, idx.DeleteDocument(ctx, "doc1"))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].SegmentID)
}

func TestIndexConcurrentQueryAndWrite(t *testing.T) {
	idx := NewIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		entryFor("stable", "stable:s0", "m", []float32{1, 0}),
		entryFor("stable", "stable:s1", "m", []float32{0, 1}),
	}))

	// Churn a second document while querying the first. Queries must
	// always see the stable document complete and never error.
	const iterations = 200
	var wg sync.WaitGroup
	errs := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			err := idx.Upsert(ctx, []driven.VectorEntry{
				entryFor("churn", fmt.Sprintf("churn:s%d", i%4), "m", []float32{0.5, 0.5}),
			})
			if err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if err := idx.DeleteDocument(ctx, "churn"); err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		filter := driven.VectorFilter{DocumentID: "stable", Model: "m"}
		for i := 0; i < iterations; i++ {
			hits, err := idx.Query(ctx, []float32{1, 0}, 10, filter)
			if err != nil {
				errs <- err
				return
			}
			if len(hits) != 2 {
				errs <- fmt.Errorf("query saw %d stable hits, want 2", len(hits))
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
