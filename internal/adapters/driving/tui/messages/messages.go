// Package messages holds the tea.Msg types the views and the app exchange.
package messages

import (
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// ViewType identifies a screen of the TUI.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewAsk
	ViewDocuments
	ViewDocContent
	ViewDocDetails
	ViewSettings
	ViewHelp
)

var viewNames = [...]struct{ id, title string }{
	ViewMenu:       {"menu", "Menu"},
	ViewSearch:     {"search", "Search"},
	ViewAsk:        {"ask", "Ask"},
	ViewDocuments:  {"documents", "Documents"},
	ViewDocContent: {"doc_content", "Document"},
	ViewDocDetails: {"doc_details", "Document Details"},
	ViewSettings:   {"settings", "Settings"},
	ViewHelp:       {"help", "Help"},
}

func (v ViewType) valid() bool {
	return v >= 0 && int(v) < len(viewNames)
}

// String returns the snake_case identifier of the view.
func (v ViewType) String() string {
	if !v.valid() {
		return "unknown"
	}
	return viewNames[v].id
}

// Title returns the human readable view name used in the window title.
func (v ViewType) Title() string {
	if !v.valid() {
		return ""
	}
	return viewNames[v].title
}

// ViewChanged asks the app to switch to View.
type ViewChanged struct {
	View ViewType
}

// Query results.
type (
	SearchCompleted struct {
		Results []domain.SearchResult
		Err     error
	}

	AnswerCompleted struct {
		Answer *domain.Answer
		Err    error
	}
)

// Document browsing.
type (
	// DocumentsLoaded carries one listing for the given type filter.
	DocumentsLoaded struct {
		Type      domain.DocumentType
		Documents []domain.Document
		Err       error
	}

	// DocumentSelected opens the chunk view of Document.
	DocumentSelected struct {
		Document domain.Document
	}

	ChunksLoaded struct {
		DocumentID string
		Chunks     []domain.Chunk
		Err        error
	}

	DocumentDetailsLoaded struct {
		DocumentID string
		Details    *driving.DocumentDetails
		Err        error
	}

	DocumentDeleted struct {
		DocumentID string
		Err        error
	}
)

// Settings.
type (
	SettingsLoaded struct {
		Settings *domain.AppSettings
		Err      error
	}

	SettingsSaved struct {
		Err error
	}
)

// ErrorOccurred reports a failure to the active view.
type ErrorOccurred struct {
	Err error
}

// Quit ends the program.
type Quit struct{}
