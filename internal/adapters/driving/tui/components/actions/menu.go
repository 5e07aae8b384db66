// Package actions provides the pop-up action menu the list views open on
// their selected row.
package actions

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
)

// Option is one menu entry.
type Option[T any] struct {
	Value T
	Label string
}

// Menu is a closed-by-default list of options. The zero value is not
// usable; build one with New.
type Menu[T any] struct {
	styles  *styles.Styles
	options []Option[T]
	title   string
	cursor  int
	open    bool
}

// New creates a closed menu over options.
func New[T any](s *styles.Styles, options ...Option[T]) *Menu[T] {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Menu[T]{styles: s, options: options}
}

// Open shows the menu under title with the cursor on the first option.
func (m *Menu[T]) Open(title string) {
	m.title = title
	m.cursor = 0
	m.open = true
}

// Close hides the menu.
func (m *Menu[T]) Close() { m.open = false }

// Visible reports whether the menu is open.
func (m *Menu[T]) Visible() bool { return m.open }

// Cursor returns the highlighted option index.
func (m *Menu[T]) Cursor() int { return m.cursor }

// HandleKey moves the cursor or closes the menu. On enter it closes the
// menu and returns the chosen value with ok set.
func (m *Menu[T]) HandleKey(msg tea.KeyMsg) (chosen T, ok bool) {
	switch msg.String() {
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = max(0, min(len(m.options)-1, m.cursor+1))
	case "esc":
		m.open = false
	case "enter":
		if len(m.options) > 0 {
			m.open = false
			return m.options[m.cursor].Value, true
		}
	}
	return chosen, false
}

// View renders the title and options, or nothing when closed.
func (m *Menu[T]) View() string {
	if !m.open {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.Subtitle.Render(m.title))
		b.WriteString("\n\n")
	}
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + opt.Label))
		} else {
			b.WriteString(m.styles.Normal.Render("  " + opt.Label))
		}
		if i < len(m.options)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
