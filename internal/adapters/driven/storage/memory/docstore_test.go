package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docq/internal/core/domain"
)

func testDoc(id string, created time.Time) *domain.Document {
	return &domain.Document{
		ID:         id,
		SourceName: id + ".txt",
		Pages:      []domain.Page{{Number: 1, Text: "some text"}},
		CreatedAt:  created,
	}
}

func TestDocumentStoreSaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	doc := testDoc("doc1", time.Now())

	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "doc1.txt", got.SourceName)

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStoreSegments(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc1", time.Now())))

	segments := []domain.TextSegment{
		{ID: "doc1:s1", DocumentID: "doc1", Text: "second", OrderIndex: 1},
		{ID: "doc1:s0", DocumentID: "doc1", Text: "first", OrderIndex: 0},
	}
	require.NoError(t, store.SaveSegments(ctx, "doc1", segments))

	got, err := store.GetSegments(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)

	seg, err := store.GetSegment(ctx, "doc1", "doc1:s1")
	require.NoError(t, err)
	assert.Equal(t, "second", seg.Text)

	_, err = store.GetSegment(ctx, "doc1", "doc1:s9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStoreSaveSegmentsReplaces(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc1", time.Now())))

	require.NoError(t, store.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "old", OrderIndex: 0},
		{ID: "doc1:s1", DocumentID: "doc1", Text: "old too", OrderIndex: 1},
	}))
	require.NoError(t, store.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "new", OrderIndex: 0},
	}))

	got, err := store.GetSegments(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)
}

func TestDocumentStoreReadyFlag(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc1", time.Now())))

	ready, err := store.IsReady(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, ready)

	require.NoError(t, store.MarkReady(ctx, "doc1"))

	ready, err = store.IsReady(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, ready)

	assert.ErrorIs(t, store.MarkReady(ctx, "missing"), domain.ErrNotFound)
	_, err = store.IsReady(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStoreDelete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc1", time.Now())))
	require.NoError(t, store.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "text", OrderIndex: 0},
	}))
	require.NoError(t, store.MarkReady(ctx, "doc1"))

	require.NoError(t, store.DeleteDocument(ctx, "doc1"))

	_, err := store.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := store.GetSegments(ctx, "doc1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocumentStoreListOrderedByCreation(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, store.SaveDocument(ctx, testDoc("newer", base.Add(time.Hour))))
	require.NoError(t, store.SaveDocument(ctx, testDoc("older", base)))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "older", docs[0].ID)
	assert.Equal(t, "newer", docs[1].ID)
}

func TestConversationStore(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()
	now := time.Now().UTC()

	conv := &domain.Conversation{ID: "conv1", DocumentID: "doc1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateConversation(ctx, conv))

	assert.Error(t, store.CreateConversation(ctx, conv))

	require.NoError(t, store.AppendTurn(ctx, "conv1", domain.Turn{Query: "q1", Answer: "a1", CreatedAt: now}))
	require.NoError(t, store.AppendTurn(ctx, "conv1", domain.Turn{Query: "q2", Answer: "a2", CreatedAt: now}))

	got, err := store.GetConversation(ctx, "conv1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "q1", got.Turns[0].Query)
	assert.Equal(t, "a2", got.Turns[1].Answer)

	_, err = store.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.AppendTurn(ctx, "missing", domain.Turn{}), domain.ErrNotFound)
}
