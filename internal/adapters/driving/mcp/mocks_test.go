package mcp

import (
	"context"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result   *domain.QueryResult
	err      error
	lastOpts driving.QueryOptions
}

func (m *mockQueryService) Query(
	_ context.Context,
	_ string,
	_ string,
	opts driving.QueryOptions,
) (*domain.QueryResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result    *driving.IngestResult
	documents []driving.DocumentInfo
	err       error
	lastName  string
}

func (m *mockIngestionService) Ingest(
	_ context.Context,
	_ []byte,
	fileName string,
) (*driving.IngestResult, error) {
	m.lastName = fileName
	return m.result, m.err
}

func (m *mockIngestionService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngestionService) List(_ context.Context) ([]driving.DocumentInfo, error) {
	return m.documents, m.err
}
