// Package status renders the one-line bar under the search view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// State selects the left-hand status text and the key hints.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateError     State = "error"
)

// Bar shows the search state and active filters on the left and key hints
// on the right.
type Bar struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	state   State
	message string
	count   int

	mode       domain.SearchMode
	typeFilter domain.DocumentType

	width int
}

// NewBar creates a ready bar. Nil arguments fall back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{styles: s, keys: km, help: h, state: StateReady, width: 80}
}

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left := b.status() + b.styles.Muted.Render(" | "+b.filters())
	right := b.help.ShortHelpView(b.hints())
	gap := max(1, b.width-lipgloss.Width(left)-lipgloss.Width(right))
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) status() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	}
	if b.count == 0 {
		return b.styles.Muted.Render("Ready")
	}
	return b.styles.Normal.Render(fmt.Sprintf("%d results", b.count))
}

func (b *Bar) filters() string {
	mode, typ := "default", "all"
	if b.mode != "" {
		mode = string(b.mode)
	}
	if b.typeFilter != "" {
		typ = b.typeFilter.Label()
	}
	return "mode: " + mode + " type: " + typ
}

func (b *Bar) hints() []key.Binding {
	if b.state == StateResults && b.count > 0 {
		return b.keys.ResultsHelp()
	}
	return b.keys.InputHelp()
}

// SetState sets the state.
func (b *Bar) SetState(state State) { b.state = state }

// State returns the state.
func (b *Bar) State() State { return b.state }

// SetMessage sets the error or notice text.
func (b *Bar) SetMessage(message string) { b.message = message }

// Message returns the error or notice text.
func (b *Bar) Message() string { return b.message }

// SetResultCount sets the number of results shown.
func (b *Bar) SetResultCount(count int) { b.count = count }

// ResultCount returns the number of results shown.
func (b *Bar) ResultCount() int { return b.count }

// SetMode sets the displayed search mode.
func (b *Bar) SetMode(mode domain.SearchMode) { b.mode = mode }

// SetTypeFilter sets the displayed type filter; empty means all types.
func (b *Bar) SetTypeFilter(t domain.DocumentType) { b.typeFilter = t }

// SetWidth sets the width.
func (b *Bar) SetWidth(width int) { b.width = width }

// Width returns the width.
func (b *Bar) Width() int { return b.width }

// Clear drops the state, message and count but keeps the filters.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.count = 0
}
