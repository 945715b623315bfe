package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrate again against the same file.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:         "doc1",
		SourceName: "report.txt",
		Pages: []domain.Page{
			{Number: 1, Text: "first page"},
			{Number: 2, Text: "second page"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "report.txt", got.SourceName)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, 2, got.Pages[1].Number)

	_, err = docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStoreSegmentsAndReady(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "doc1", SourceName: "a.txt", CreatedAt: time.Now().UTC()}
	require.NoError(t, docs.SaveDocument(ctx, doc))
	require.NoError(t, docs.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s1", DocumentID: "doc1", Text: "second", PageNumber: 2, ParentID: "doc1:p0", OrderIndex: 1},
		{ID: "doc1:s0", DocumentID: "doc1", Text: "first", PageNumber: 1, OrderIndex: 0},
	}))

	segments, err := docs.GetSegments(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "first", segments[0].Text)
	assert.Equal(t, "doc1:p0", segments[1].ParentID)

	seg, err := docs.GetSegment(ctx, "doc1", "doc1:s1")
	require.NoError(t, err)
	assert.Equal(t, 2, seg.PageNumber)

	ready, err := docs.IsReady(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, ready)
	require.NoError(t, docs.MarkReady(ctx, "doc1"))
	ready, err = docs.IsReady(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, ready)

	assert.ErrorIs(t, docs.MarkReady(ctx, "missing"), domain.ErrNotFound)
}

func TestDocumentStoreSaveSegmentsReplaces(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "doc1", SourceName: "a.txt", CreatedAt: time.Now().UTC()}))
	require.NoError(t, docs.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "old", OrderIndex: 0},
		{ID: "doc1:s1", DocumentID: "doc1", Text: "old", OrderIndex: 1},
	}))
	require.NoError(t, docs.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "new", OrderIndex: 0},
	}))

	segments, err := docs.GetSegments(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "new", segments[0].Text)
}

func TestDocumentStoreDeleteCascades(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "doc1", SourceName: "a.txt", CreatedAt: time.Now().UTC()}))
	require.NoError(t, docs.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "text", OrderIndex: 0},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, "doc1"))

	_, err := docs.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	segments, err := docs.GetSegments(ctx, "doc1")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestConversationStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	convs := store.ConversationStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	conv := &domain.Conversation{ID: "conv1", DocumentID: "doc1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, convs.CreateConversation(ctx, conv))

	require.NoError(t, convs.AppendTurn(ctx, "conv1", domain.Turn{Query: "q1", Answer: "a1", CreatedAt: now}))
	require.NoError(t, convs.AppendTurn(ctx, "conv1", domain.Turn{Query: "q2", Answer: "a2", CreatedAt: now}))

	got, err := convs.GetConversation(ctx, "conv1")
	require.NoError(t, err)
	assert.Equal(t, "doc1", got.DocumentID)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "q1", got.Turns[0].Query)
	assert.Equal(t, "a2", got.Turns[1].Answer)

	assert.ErrorIs(t, convs.AppendTurn(ctx, "missing", domain.Turn{}), domain.ErrNotFound)
	_, err = convs.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorIndexRoundTrip(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex(2)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "s0", Model: "m", Vector: []float32{1, 0}},
		{DocumentID: "doc1", SegmentID: "s1", Model: "m", Vector: []float32{0, 1}},
		{DocumentID: "doc1", SegmentID: "s2", Model: "other", Vector: []float32{1, 0}},
	}))

	hits, err := index.Query(ctx, []float32{1, 0}, 10, driven.VectorFilter{DocumentID: "doc1", Model: "m"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "s0", hits[0].SegmentID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "s1", hits[1].SegmentID)
}

func TestVectorIndexUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex(2)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "s0", Model: "m", Vector: []float32{1, 0}},
	}))
	require.NoError(t, index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "s0", Model: "m", Vector: []float32{0, 1}},
	}))

	hits, err := index.Query(ctx, []float32{0, 1}, 10, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestVectorIndexStableTieBreak(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex(2)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "first", Model: "m", Vector: []float32{1, 0}},
		{DocumentID: "doc1", SegmentID: "second", Model: "m", Vector: []float32{1, 0}},
	}))

	hits, err := index.Query(ctx, []float32{1, 0}, 2, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].SegmentID)
	assert.Equal(t, "second", hits[1].SegmentID)
}

func TestVectorIndexDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex(3)
	ctx := context.Background()

	err := index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "s0", Model: "m", Vector: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = index.Query(ctx, []float32{1, 0}, 5, driven.VectorFilter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndexDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex(2)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "s0", Model: "m", Vector: []float32{1, 0}},
		{DocumentID: "doc2", SegmentID: "s1", Model: "m", Vector: []float32{1, 0}},
	}))
	require.NoError(t, index.DeleteDocument(ctx, "doc1"))

	hits, err := index.Query(ctx, []float32{1, 0}, 10, driven.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].SegmentID)
}

func TestVectorIndexConcurrentQueryAndWrite(t *testing.T) {
	store := newTestStore(t)
	index := store.VectorIndex(2)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "stable", SegmentID: "stable:s0", Model: "m", Vector: []float32{1, 0}},
		{DocumentID: "stable", SegmentID: "stable:s1", Model: "m", Vector: []float32{0, 1}},
	}))

	// Churn a second document while querying the first. WAL keeps
	// readers unblocked; queries must always see the stable document
	// complete.
	const iterations = 50
	var wg sync.WaitGroup
	errs := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			err := index.Upsert(ctx, []driven.VectorEntry{
				{DocumentID: "churn", SegmentID: fmt.Sprintf("churn:s%d", i%4), Model: "m", Vector: []float32{0.5, 0.5}},
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
			if err := index.DeleteDocument(ctx, "churn"); err != nil {
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
			hits, err := index.Query(ctx, []float32{1, 0}, 10, filter)
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
