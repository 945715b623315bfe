package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/custodia-labs/docq/internal/adapters/driven/storage/memory"
	vectormem "github.com/custodia-labs/docq/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

type queryFixture struct {
	docStore  *storagemem.DocumentStore
	convStore *storagemem.ConversationStore
	index     *vectormem.Index
	embedder  *mockEmbeddingService
	reranker  *mockReranker
	generator *mockGenerator
}

func newQueryFixture() *queryFixture {
	return &queryFixture{
		docStore:  storagemem.NewDocumentStore(),
		convStore: storagemem.NewConversationStore(),
		index:     vectormem.NewIndex(2),
		embedder:  &mockEmbeddingService{dims: 2, fallback: []float32{1, 0}},
		reranker:  &mockReranker{},
		generator: &mockGenerator{answer: "generated answer"},
	}
}

func (f *queryFixture) service(t *testing.T) *QueryService {
	t.Helper()
	svc, err := NewQueryService(f.docStore, f.convStore, f.index, f.embedder, f.reranker, f.generator,
		domain.RetrievalSettings{InitialK: 10, FinalK: 2, HistoryTurns: 10})
	require.NoError(t, err)
	return svc
}

// seedDocument stores a ready document with three indexed segments whose
// vector similarity to the fallback query vector decreases s0 > s1 > s2.
func (f *queryFixture) seedDocument(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	doc := &domain.Document{
		ID:         "doc1",
		SourceName: "report.txt",
		Pages: []domain.Page{
			{Number: 1, Text: "page one"},
			{Number: 2, Text: "page two"},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.docStore.SaveDocument(ctx, doc))
	require.NoError(t, f.docStore.SaveSegments(ctx, "doc1", []domain.TextSegment{
		{ID: "doc1:s0", DocumentID: "doc1", Text: "alpha text", PageNumber: 1, OrderIndex: 0},
		{ID: "doc1:s1", DocumentID: "doc1", Text: "beta text", PageNumber: 1, OrderIndex: 1},
		{ID: "doc1:s2", DocumentID: "doc1", Text: "gamma text", PageNumber: 2, OrderIndex: 2},
	}))
	require.NoError(t, f.index.Upsert(ctx, []driven.VectorEntry{
		{DocumentID: "doc1", SegmentID: "doc1:s0", Model: "mock-model", Vector: []float32{1, 0}},
		{DocumentID: "doc1", SegmentID: "doc1:s1", Model: "mock-model", Vector: []float32{0.9, 0.1}},
		{DocumentID: "doc1", SegmentID: "doc1:s2", Model: "mock-model", Vector: []float32{0.5, 0.5}},
	}))
	require.NoError(t, f.docStore.MarkReady(ctx, "doc1"))
}

func TestQueryFullPipeline(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	// The cross-encoder disagrees with the vector ordering.
	f.reranker.results = []driven.RerankResult{
		{SegmentID: "doc1:s2", Score: 0.95},
		{SegmentID: "doc1:s0", Score: 0.40},
		{SegmentID: "doc1:s1", Score: 0.10},
	}
	svc := f.service(t)

	result, err := svc.Query(context.Background(), "doc1", "what is gamma?", driving.QueryOptions{})
	require.NoError(t, err)

	assert.Equal(t, "generated answer", result.Answer)
	assert.False(t, result.Empty)
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, "doc1:s2", result.Evidence[0].Segment.ID)
	assert.Equal(t, "doc1:s0", result.Evidence[1].Segment.ID)
	assert.Equal(t, 0, result.Evidence[0].FinalRank)
	assert.Equal(t, 1, result.Evidence[1].FinalRank)
	assert.True(t, result.Evidence[0].Reranked)

	require.Len(t, result.Citations, 2)
	assert.Equal(t, domain.Citation{PageNumber: 2, DocumentName: "report.txt"}, result.Citations[0])
	assert.Equal(t, domain.Citation{PageNumber: 1, DocumentName: "report.txt"}, result.Citations[1])

	// The turn was recorded in a newly created conversation.
	require.NotEmpty(t, result.ConversationID)
	conv, err := f.convStore.GetConversation(context.Background(), result.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "what is gamma?", conv.Turns[0].Query)
	assert.Equal(t, "generated answer", conv.Turns[0].Answer)
}

func TestQueryDeduplicatesCitations(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	f.reranker.results = []driven.RerankResult{
		{SegmentID: "doc1:s0", Score: 0.9},
		{SegmentID: "doc1:s1", Score: 0.8},
	}
	svc := f.service(t)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Evidence, 2)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, domain.Citation{PageNumber: 1, DocumentName: "report.txt"}, result.Citations[0])
}

func TestQueryRerankTotalFailureFallsBackToVectorOrder(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	f.reranker.rerankErr = errors.New("rerank service down")
	svc := f.service(t)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, "doc1:s0", result.Evidence[0].Segment.ID)
	assert.Equal(t, "doc1:s1", result.Evidence[1].Segment.ID)
	assert.False(t, result.Evidence[0].Reranked)
}

func TestQueryRerankPartialFailure(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	// Only one candidate scored: it leads, vector order fills the rest.
	f.reranker.results = []driven.RerankResult{
		{SegmentID: "doc1:s2", Score: 0.7},
	}
	svc := f.service(t)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, "doc1:s2", result.Evidence[0].Segment.ID)
	assert.True(t, result.Evidence[0].Reranked)
	assert.Equal(t, "doc1:s0", result.Evidence[1].Segment.ID)
	assert.False(t, result.Evidence[1].Reranked)
}

func TestQueryWithoutReranker(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	svc, err := NewQueryService(f.docStore, f.convStore, f.index, f.embedder, nil, f.generator,
		domain.RetrievalSettings{InitialK: 10, FinalK: 2, HistoryTurns: 10})
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, "doc1:s0", result.Evidence[0].Segment.ID)
}

func TestQueryWithoutGenerator(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	svc, err := NewQueryService(f.docStore, f.convStore, f.index, f.embedder, f.reranker, nil,
		domain.RetrievalSettings{InitialK: 10, FinalK: 2, HistoryTurns: 10})
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Answer)
	assert.NotEmpty(t, result.Evidence)
}

func TestQueryWithoutAnswerSkipsGeneration(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	svc := f.service(t)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{WithoutAnswer: true})
	require.NoError(t, err)
	assert.False(t, f.generator.called)
	assert.Empty(t, result.Answer)

	// No answer, no recorded turn.
	conv, err := f.convStore.GetConversation(context.Background(), result.ConversationID)
	require.NoError(t, err)
	assert.Empty(t, conv.Turns)
}

func TestQueryEmptyResult(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	// Nothing indexed under this model identity matches the filter.
	f.embedder.model = "different-model"
	svc := f.service(t)

	result, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.NoError(t, err)
	assert.True(t, result.Empty)
	assert.Equal(t, NoContentAnswer, result.Answer)
	assert.Empty(t, result.Evidence)
	assert.Empty(t, result.Citations)
	assert.False(t, f.generator.called)

	conv, err := f.convStore.GetConversation(context.Background(), result.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, NoContentAnswer, conv.Turns[0].Answer)
}

func TestQueryConversationHistory(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	svc := f.service(t)
	ctx := context.Background()

	first, err := svc.Query(ctx, "doc1", "first question", driving.QueryOptions{})
	require.NoError(t, err)

	second, err := svc.Query(ctx, "doc1", "second question", driving.QueryOptions{
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	require.Len(t, f.generator.lastHistory, 1)
	assert.Equal(t, "first question", f.generator.lastHistory[0].Query)

	conv, err := f.convStore.GetConversation(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Turns, 2)
}

func TestQueryConversationDocumentMismatch(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	require.NoError(t, f.convStore.CreateConversation(context.Background(), &domain.Conversation{
		ID:         "conv-other",
		DocumentID: "other-doc",
	}))
	svc := f.service(t)

	_, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{
		ConversationID: "conv-other",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryValidation(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	svc := f.service(t)
	ctx := context.Background()

	_, err := svc.Query(ctx, "doc1", "   ", driving.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrEmptyText)

	_, err = svc.Query(ctx, "missing", "question", driving.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryDocumentNotReady(t *testing.T) {
	f := newQueryFixture()
	ctx := context.Background()
	require.NoError(t, f.docStore.SaveDocument(ctx, &domain.Document{ID: "doc1", SourceName: "report.txt"}))
	svc := f.service(t)

	_, err := svc.Query(ctx, "doc1", "question", driving.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrDocumentNotReady)
}

func TestQueryEmbeddingFailureIsStageError(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	f.embedder.embedErr = errors.New("connection refused")
	svc := f.service(t)

	_, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageEmbeddingQuery, stageErr.Stage)
	assert.True(t, domain.Retryable(err))

	// A failed run never records a turn.
	_, convErr := f.convStore.GetConversation(context.Background(), "any")
	assert.ErrorIs(t, convErr, domain.ErrNotFound)
}

func TestQueryGenerationFailureIsStageError(t *testing.T) {
	f := newQueryFixture()
	f.seedDocument(t)
	f.generator.generateErr = errors.New("model timeout")
	svc := f.service(t)

	_, err := svc.Query(context.Background(), "doc1", "question", driving.QueryOptions{})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageGeneration, stageErr.Stage)
}

func TestQueryInvalidSettings(t *testing.T) {
	f := newQueryFixture()
	_, err := NewQueryService(f.docStore, f.convStore, f.index, f.embedder, nil, nil,
		domain.RetrievalSettings{InitialK: 5, FinalK: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
