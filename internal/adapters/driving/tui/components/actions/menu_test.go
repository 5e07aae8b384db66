package actions

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type verb int

const (
	copyVerb verb = iota
	openVerb
	cancelVerb
)

func newMenu() *Menu[verb] {
	return New(nil,
		Option[verb]{copyVerb, "Copy"},
		Option[verb]{openVerb, "Open"},
		Option[verb]{cancelVerb, "Cancel"},
	)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestMenu_ClosedByDefault(t *testing.T) {
	m := newMenu()

	assert.False(t, m.Visible())
	assert.Equal(t, "", m.View())
}

func TestMenu_Choose(t *testing.T) {
	m := newMenu()
	m.Open("Actions for: Lei n.º 1/2024")
	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Actions for: Lei n.º 1/2024")
	assert.Contains(t, m.View(), "> Copy")

	_, ok := m.HandleKey(keyMsg("j"))
	assert.False(t, ok)
	assert.Contains(t, m.View(), "> Open")

	got, ok := m.HandleKey(keyMsg("enter"))
	assert.True(t, ok)
	assert.Equal(t, openVerb, got)
	assert.False(t, m.Visible())
}

func TestMenu_CursorBounds(t *testing.T) {
	m := newMenu()
	m.Open("")

	m.HandleKey(keyMsg("k"))
	assert.Equal(t, 0, m.Cursor())
	for range 5 {
		m.HandleKey(keyMsg("j"))
	}
	assert.Equal(t, 2, m.Cursor())

	m.Open("")
	assert.Equal(t, 0, m.Cursor())
}

func TestMenu_Escape(t *testing.T) {
	m := newMenu()
	m.Open("")

	_, ok := m.HandleKey(keyMsg("esc"))

	assert.False(t, ok)
	assert.False(t, m.Visible())
}

func TestMenu_NoOptions(t *testing.T) {
	m := New[verb](nil)
	m.Open("")

	_, ok := m.HandleKey(keyMsg("enter"))

	assert.False(t, ok)
}
