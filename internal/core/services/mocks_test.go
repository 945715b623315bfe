package services

import (
	"context"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockExtractor implements driven.Extractor for testing.
type mockExtractor struct {
	pages      []domain.Page
	extractErr error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte, _ string) (*domain.Document, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return &domain.Document{Pages: m.pages}, nil
}

func (m *mockExtractor) SupportedTypes() []string {
	return []string{"txt", "md"}
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are looked up by text; unknown texts get the fallback vector.
type mockEmbeddingService struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	dims     int
	model    string
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.fallback
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vectorFor(t))
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return m.dims
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model == "" {
		return "mock-model"
	}
	return m.model
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockReranker implements driven.Reranker for testing.
type mockReranker struct {
	results   []driven.RerankResult
	rerankErr error
	called    bool
}

func (m *mockReranker) Rerank(_ context.Context, _ string, _ []driven.RerankCandidate) ([]driven.RerankResult, error) {
	m.called = true
	if m.rerankErr != nil {
		return nil, m.rerankErr
	}
	return m.results, nil
}

func (m *mockReranker) ModelName() string {
	return "mock-reranker"
}

func (m *mockReranker) Ping(_ context.Context) error {
	return nil
}

func (m *mockReranker) Close() error {
	return nil
}

// mockGenerator implements driven.Generator for testing. It records the
// evidence and history it was called with.
type mockGenerator struct {
	answer       string
	generateErr  error
	called       bool
	lastEvidence []domain.Evidence
	lastHistory  []domain.Turn
}

func (m *mockGenerator) GenerateAnswer(_ context.Context, _ string, evidence []domain.Evidence, history []domain.Turn) (string, error) {
	m.called = true
	m.lastEvidence = evidence
	m.lastHistory = history
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.answer, nil
}

func (m *mockGenerator) ModelName() string {
	return "mock-generator"
}

func (m *mockGenerator) Ping(_ context.Context) error {
	return nil
}

func (m *mockGenerator) Close() error {
	return nil
}
