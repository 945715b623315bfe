package mcp

import (
	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions about ingested documents.
	Query driving.QueryService

	// Ingestion manages the document lifecycle.
	Ingestion driving.IngestionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Ingestion is optional; the ingest tool and document resources are
	// only registered when it is present.
	return nil
}
