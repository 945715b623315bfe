package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/docq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
	"github.com/custodia-labs/docq/internal/core/services"
)

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result    *driving.IngestResult
	documents []driving.DocumentInfo
	err       error
	deleted   []string
}

func (m *mockIngestionService) Ingest(_ context.Context, _ []byte, _ string) (*driving.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockIngestionService) List(_ context.Context) ([]driving.DocumentInfo, error) {
	return m.documents, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result   *domain.QueryResult
	err      error
	lastOpts driving.QueryOptions
}

func (m *mockQueryService) Query(_ context.Context, _, _ string, opts driving.QueryOptions) (*domain.QueryResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

// setupTestServices swaps the package-level services for mocks and returns
// a cleanup function restoring the previous state.
func setupTestServices() (*mockIngestionService, *mockQueryService, func()) {
	oldSettings := settingsService
	oldIngestion := ingestionService
	oldQuery := queryService

	ingestion := &mockIngestionService{
		result: &driving.IngestResult{DocumentID: "doc-1", SegmentCount: 3, PageCount: 2},
		documents: []driving.DocumentInfo{
			{
				ID:           "doc-1",
				SourceName:   "report.txt",
				PageCount:    2,
				SegmentCount: 3,
				Ready:        true,
				CreatedAt:    time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
			},
		},
	}
	query := &mockQueryService{
		result: &domain.QueryResult{
			Answer: "The answer.",
			Citations: []domain.Citation{
				{DocumentName: "report.txt", PageNumber: 2},
			},
			ConversationID: "conv-1",
		},
	}

	settingsService = services.NewSettingsService(memory.NewConfigStore())
	ingestionService = ingestion
	queryService = query

	return ingestion, query, func() {
		settingsService = oldSettings
		ingestionService = oldIngestion
		queryService = oldQuery
		conversationID = ""
		noAnswer = false
		showEvidence = false
		jsonOutput = false
		settingsModel = ""
		settingsAPIKey = ""
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
