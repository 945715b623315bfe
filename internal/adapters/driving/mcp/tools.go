package mcp

import (
	"context"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	DocumentID     string `json:"document_id" jsonschema:"the ID of the ingested document to query"`
	Question       string `json:"question" jsonschema:"the natural-language question to answer"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation ID to continue for follow-up questions"`
	WithoutAnswer  bool   `json:"without_answer,omitempty" jsonschema:"skip answer generation and return evidence only"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string           `json:"answer"`
	Citations      []CitationOutput `json:"citations"`
	Evidence       []EvidenceOutput `json:"evidence,omitempty"`
	ConversationID string           `json:"conversation_id"`
	Empty          bool             `json:"empty"`
}

// CitationOutput is one page-level source reference.
type CitationOutput struct {
	Document string `json:"document"`
	Page     int    `json:"page,omitempty"`
}

// EvidenceOutput is one retrieved segment with its scores.
type EvidenceOutput struct {
	Text        string  `json:"text"`
	Page        int     `json:"page,omitempty"`
	VectorScore float64 `json:"vector_score"`
	RerankScore float64 `json:"rerank_score,omitempty"`
	Rank        int     `json:"rank"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path string `json:"path" jsonschema:"path of the file to ingest"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID   string `json:"document_id"`
	SourceName   string `json:"source_name"`
	PageCount    int    `json:"page_count"`
	SegmentCount int    `json:"segment_count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about an ingested document and get a cited answer",
	}, s.handleAsk)

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest a document file so it can be queried",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Query.Query(ctx, input.DocumentID, input.Question, driving.QueryOptions{
		ConversationID: input.ConversationID,
		WithoutAnswer:  input.WithoutAnswer,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:         result.Answer,
		Citations:      make([]CitationOutput, len(result.Citations)),
		ConversationID: result.ConversationID,
		Empty:          result.Empty,
	}
	for i, c := range result.Citations {
		output.Citations[i] = CitationOutput{
			Document: c.DocumentName,
			Page:     c.PageNumber,
		}
	}

	if input.WithoutAnswer {
		output.Evidence = make([]EvidenceOutput, len(result.Evidence))
		for i, ev := range result.Evidence {
			out := EvidenceOutput{
				Text:        ev.Segment.Text,
				Page:        ev.Segment.PageNumber,
				VectorScore: ev.VectorScore,
				Rank:        ev.FinalRank,
			}
			if ev.Reranked {
				out.RerankScore = ev.RerankScore
			}
			output.Evidence[i] = out
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	content, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	result, err := s.ports.Ingestion.Ingest(ctx, content, input.Path)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID:   result.DocumentID,
		SourceName:   filepath.Base(input.Path),
		PageCount:    result.PageCount,
		SegmentCount: result.SegmentCount,
	}, nil
}
