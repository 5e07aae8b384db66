// Package tui provides an interactive terminal interface for searching,
// asking about and browsing indexed legislation.
package tui

import (
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Search retrieves passages.
	Search driving.SearchService

	// Ask answers questions over retrieved passages. Optional.
	Ask driving.AskService

	// Document lists and inspects stored documents.
	Document driving.DocumentService

	// ResultAction copies and opens search results. Optional.
	ResultAction driving.ResultActionService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(search driving.SearchService, document driving.DocumentService) *Ports {
	return &Ports{
		Search:   search,
		Document: document,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
