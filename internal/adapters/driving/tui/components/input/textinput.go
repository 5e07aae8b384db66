// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
)

// QueryInput wraps a bubbles textinput with a label.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewSearchInput creates the input used for keyword and semantic search.
func NewSearchInput(s *styles.Styles) *QueryInput {
	return NewQueryInput(s, "Search: ", "e.g. prazo de pagamento da renda")
}

// NewQuestionInput creates the input used for legal questions.
func NewQuestionInput(s *styles.Styles) *QueryInput {
	return NewQueryInput(s, "Question: ", "e.g. Qual o prazo de denúncia do contrato?")
}

// NewQueryInput creates a focused input with the given label and placeholder.
func NewQueryInput(s *styles.Styles, label, placeholder string) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 50

	return &QueryInput{
		textinput: ti,
		styles:    s,
		label:     label,
		width:     50,
	}
}

// Init initialises the input.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the label and the input box.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render(q.label)
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the total width, leaving room for the label and border.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	inputWidth := width - lipgloss.Width(q.label) - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	q.textinput.Width = inputWidth
}

// Width returns the current width.
func (q *QueryInput) Width() int {
	return q.width
}

// Label returns the input label.
func (q *QueryInput) Label() string {
	return q.label
}

// Reset clears the input.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
}
