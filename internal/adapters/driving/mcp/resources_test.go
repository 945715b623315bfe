package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns document list as JSON", func(t *testing.T) {
		mockIngestion := &mockIngestionService{
			documents: []driving.DocumentInfo{
				{
					ID:           "doc-1",
					SourceName:   "report.txt",
					PageCount:    4,
					SegmentCount: 12,
					Ready:        true,
					CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
				},
			},
		}

		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingestion: mockIngestion})
		require.NoError(t, err)

		req := &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: uriScheme + "documents"},
		}
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var infos []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 1)
		assert.Equal(t, "doc-1", infos[0]["id"])
		assert.Equal(t, "report.txt", infos[0]["name"])
		assert.Equal(t, true, infos[0]["ready"])
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockIngestion := &mockIngestionService{err: errors.New("storage failed")}

		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingestion: mockIngestion})
		require.NoError(t, err)

		req := &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: uriScheme + "documents"},
		}
		_, err = server.handleDocumentsResource(ctx, req)
		require.Error(t, err)
	})
}
