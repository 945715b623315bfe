package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
	"github.com/custodia-labs/docq/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// NoContentAnswer is returned when retrieval finds nothing relevant.
const NoContentAnswer = "I couldn't find relevant information in the document to answer your question."

// candidate pairs a hydrated segment with its pipeline scores.
type candidate struct {
	segment     domain.TextSegment
	vectorScore float64
	rerankScore float64
	reranked    bool
}

// QueryService runs the two-stage retrieval pipeline over one document:
// embed the query, vector search for the initial candidate set, re-rank
// with a cross-encoder, assemble citations and generate a grounded
// answer.
//
// The reranker and generator are optional. Without a reranker, evidence
// is selected by vector score alone; without a generator, the evidence
// set is returned with no answer text.
type QueryService struct {
	docStore    driven.DocumentStore
	convStore   driven.ConversationStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	reranker    driven.Reranker
	generator   driven.Generator
	settings    domain.RetrievalSettings
}

// NewQueryService creates a new query service.
// The reranker and generator parameters are optional (can be nil).
func NewQueryService(
	docStore driven.DocumentStore,
	convStore driven.ConversationStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
	generator driven.Generator,
	settings domain.RetrievalSettings,
) (*QueryService, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval settings: %w", err)
	}
	return &QueryService{
		docStore:    docStore,
		convStore:   convStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		reranker:    reranker,
		generator:   generator,
		settings:    settings,
	}, nil
}

// Query runs the retrieval pipeline for one question about one document.
func (s *QueryService) Query(ctx context.Context, documentID, query string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	logger.Section("Query Pipeline")
	logger.Debug("Document: %s, query: %q", documentID, query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query: %w", domain.ErrEmptyText)
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", documentID, err)
	}
	ready, err := s.docStore.IsReady(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("checking document %s: %w", documentID, err)
	}
	if !ready {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotReady)
	}

	conv, err := s.loadConversation(ctx, documentID, opts.ConversationID)
	if err != nil {
		return nil, err
	}
	var history []domain.Turn
	if conv != nil {
		history = conv.LastTurns(s.settings.HistoryTurns)
		logger.Debug("Conversation %s: %d history turns", conv.ID, len(history))
	}

	// Stage 1: embed the query.
	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: first-stage vector search.
	hits, err := s.vectorSearch(ctx, documentID, queryVec)
	if err != nil {
		return nil, err
	}
	logger.Debug("Vector search returned %d candidates", len(hits))
	if len(hits) == 0 {
		return s.emptyResult(ctx, documentID, query, opts, conv)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := s.hydrate(ctx, documentID, hits)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return s.emptyResult(ctx, documentID, query, opts, conv)
	}

	// Stage 3: cross-encoder re-ranking.
	candidates = s.rerank(ctx, query, candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: select the final evidence set and assemble citations.
	evidence := s.assembleEvidence(doc, candidates)
	citations := domain.DedupeCitations(evidence)
	logger.Debug("Selected %d evidence segments, %d citations", len(evidence), len(citations))

	// Stage 5: grounded answer generation.
	answer := ""
	if !opts.WithoutAnswer && s.generator != nil {
		answer, err = s.generate(ctx, query, evidence, history)
		if err != nil {
			return nil, err
		}
	}

	result := &domain.QueryResult{
		Answer:    answer,
		Evidence:  evidence,
		Citations: citations,
	}
	if err := s.recordTurn(ctx, documentID, query, result, conv); err != nil {
		return nil, err
	}
	return result, nil
}

// stageCtx derives the per-stage context. External calls get the stage
// timeout; a zero timeout leaves only the caller's deadline in place.
func (s *QueryService) stageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.settings.StageTimeout > 0 {
		return context.WithTimeout(ctx, s.settings.StageTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *QueryService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	sctx, cancel := s.stageCtx(ctx)
	defer cancel()
	vec, err := s.embedder.Embed(sctx, query)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageEmbeddingQuery, Err: err}
	}
	return vec, nil
}

func (s *QueryService) vectorSearch(ctx context.Context, documentID string, queryVec []float32) ([]driven.VectorHit, error) {
	sctx, cancel := s.stageCtx(ctx)
	defer cancel()
	hits, err := s.vectorIndex.Query(sctx, queryVec, s.settings.InitialK, driven.VectorFilter{
		DocumentID: documentID,
		Model:      s.embedder.ModelName(),
	})
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageVectorSearch, Err: err}
	}
	return hits, nil
}

// hydrate resolves vector hits to their stored segments. A hit whose
// segment is missing points at store/index drift; it is dropped with a
// warning rather than failing the query.
func (s *QueryService) hydrate(ctx context.Context, documentID string, hits []driven.VectorHit) ([]candidate, error) {
	candidates := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		seg, err := s.docStore.GetSegment(ctx, documentID, hit.SegmentID)
		if err != nil {
			if domain.Retryable(err) {
				return nil, &domain.StageError{Stage: domain.StageVectorSearch, Err: err}
			}
			logger.Warn("segment %s in index but not in store, skipping", hit.SegmentID)
			continue
		}
		candidates = append(candidates, candidate{segment: *seg, vectorScore: hit.Score})
	}
	return candidates, nil
}

// rerank scores candidates with the cross-encoder. Candidates that fail
// scoring keep their vector ordering behind the scored ones; when the
// whole batch fails the pipeline degrades to vector ordering.
func (s *QueryService) rerank(ctx context.Context, query string, candidates []candidate) []candidate {
	if s.reranker == nil {
		logger.Debug("No re-ranker configured, using vector ordering")
		return candidates
	}

	batch := make([]driven.RerankCandidate, 0, len(candidates))
	for _, c := range candidates {
		batch = append(batch, driven.RerankCandidate{SegmentID: c.segment.ID, Text: c.segment.Text})
	}

	sctx, cancel := s.stageCtx(ctx)
	defer cancel()
	results, err := s.reranker.Rerank(sctx, query, batch)
	if err != nil || len(results) == 0 {
		logger.Warn("re-ranking unavailable, falling back to vector ordering: %v", err)
		return candidates
	}
	if len(results) < len(candidates) {
		logger.Warn("re-ranking scored %d of %d candidates", len(results), len(candidates))
	}

	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.SegmentID] = r.Score
	}
	for i := range candidates {
		if score, ok := scores[candidates[i].segment.ID]; ok {
			candidates[i].rerankScore = score
			candidates[i].reranked = true
		}
	}
	return candidates
}

// assembleEvidence orders candidates and selects the final evidence set.
// Re-ranked candidates come first by rerank score; ties and unranked
// candidates fall back to vector score, then to document order.
func (s *QueryService) assembleEvidence(doc *domain.Document, candidates []candidate) []domain.Evidence {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.reranked != b.reranked {
			return a.reranked
		}
		if a.reranked && a.rerankScore != b.rerankScore {
			return a.rerankScore > b.rerankScore
		}
		if a.vectorScore != b.vectorScore {
			return a.vectorScore > b.vectorScore
		}
		return a.segment.OrderIndex < b.segment.OrderIndex
	})

	limit := s.settings.FinalK
	if limit > len(candidates) {
		limit = len(candidates)
	}

	evidence := make([]domain.Evidence, 0, limit)
	for i, c := range candidates[:limit] {
		evidence = append(evidence, domain.Evidence{
			Segment: c.segment,
			Citation: domain.Citation{
				PageNumber:   c.segment.PageNumber,
				DocumentName: doc.SourceName,
			},
			VectorScore: c.vectorScore,
			RerankScore: c.rerankScore,
			Reranked:    c.reranked,
			FinalRank:   i,
		})
	}
	return evidence
}

func (s *QueryService) generate(ctx context.Context, query string, evidence []domain.Evidence, history []domain.Turn) (string, error) {
	sctx, cancel := s.stageCtx(ctx)
	defer cancel()
	answer, err := s.generator.GenerateAnswer(sctx, query, evidence, history)
	if err != nil {
		return "", &domain.StageError{Stage: domain.StageGeneration, Err: err}
	}
	return answer, nil
}

// emptyResult builds the no-content result. Finding nothing is a
// successful outcome: the turn is still recorded.
func (s *QueryService) emptyResult(ctx context.Context, documentID, query string, opts driving.QueryOptions, conv *domain.Conversation) (*domain.QueryResult, error) {
	result := &domain.QueryResult{
		Evidence:  []domain.Evidence{},
		Citations: []domain.Citation{},
		Empty:     true,
	}
	if !opts.WithoutAnswer {
		result.Answer = NoContentAnswer
	}
	if err := s.recordTurn(ctx, documentID, query, result, conv); err != nil {
		return nil, err
	}
	return result, nil
}

// loadConversation resolves the conversation for this run. An empty ID
// means a new conversation will be created when the first turn is
// recorded.
func (s *QueryService) loadConversation(ctx context.Context, documentID, conversationID string) (*domain.Conversation, error) {
	if conversationID == "" {
		return nil, nil
	}
	conv, err := s.convStore.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", conversationID, err)
	}
	if conv.DocumentID != documentID {
		return nil, fmt.Errorf("conversation %s belongs to another document: %w", conversationID, domain.ErrInvalidInput)
	}
	return conv, nil
}

// recordTurn appends the exchange to the conversation, creating it on
// first use. Turns are recorded only for successful runs that produced an
// answer; a failed pipeline never adds one.
func (s *QueryService) recordTurn(ctx context.Context, documentID, query string, result *domain.QueryResult, conv *domain.Conversation) error {
	if conv == nil {
		now := time.Now().UTC()
		conv = &domain.Conversation{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.convStore.CreateConversation(ctx, conv); err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
	}
	result.ConversationID = conv.ID

	if result.Answer == "" {
		return nil
	}
	turn := domain.Turn{Query: query, Answer: result.Answer, CreatedAt: time.Now().UTC()}
	if err := s.convStore.AppendTurn(ctx, conv.ID, turn); err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}
