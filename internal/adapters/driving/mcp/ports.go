package mcp

import (
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Ask answers legal questions. Optional.
	Ask driving.AskService

	// Document exposes stored documents as resources. Optional.
	Document driving.DocumentService

	// Chunker backs the chunk_legal_text tool.
	// Defaults to a chunker with the default sizes.
	Chunker *legalchunker.Chunker
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
