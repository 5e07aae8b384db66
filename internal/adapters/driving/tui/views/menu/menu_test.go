package menu

import (
	"strconv"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
)

func TestNewView_Items(t *testing.T) {
	view := NewView(nil)

	labels := make([]string, 0, len(view.Items()))
	for _, item := range view.Items() {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"Search", "Ask", "Documents", "Settings", "Help", "Quit"}, labels)
	assert.True(t, view.Items()[len(view.Items())-1].Quit)
}

func TestView_Navigation(t *testing.T) {
	view := NewView(nil)

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.Selected())

	for i := 0; i < 10; i++ {
		view, _ = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	}
	assert.Equal(t, len(view.Items())-1, view.Selected())
}

func TestView_Select(t *testing.T) {
	tests := []struct {
		name  string
		moves int
		want  messages.ViewType
	}{
		{"search", 0, messages.ViewSearch},
		{"ask", 1, messages.ViewAsk},
		{"documents", 2, messages.ViewDocuments},
		{"settings", 3, messages.ViewSettings},
		{"help", 4, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)
			for i := 0; i < tt.moves; i++ {
				view, _ = view.Update(tea.KeyMsg{Type: tea.KeyDown})
			}

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)

			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_Quit(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)

	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil)
	assert.Equal(t, "Initialising...", view.View())

	view.SetDimensions(80, 24)
	out := view.View()

	assert.Contains(t, out, "lexrag")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "3. Documents")
	assert.Contains(t, out, "find passages by keyword")
	assert.NotContains(t, out, "browse diplomas")
	assert.Contains(t, out, "[q] quit")
}

func TestView_NumberShortcut(t *testing.T) {
	tests := []struct {
		key  string
		want messages.ViewType
	}{
		{"2", messages.ViewAsk},
		{"4", messages.ViewSettings},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			view := NewView(nil)

			view, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)})
			require.NotNil(t, cmd)

			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
			assert.Equal(t, tt.key, strconv.Itoa(view.Selected()+1))
		})
	}

	t.Run("quit entry", func(t *testing.T) {
		_, cmd := NewView(nil).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("6")})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("out of range", func(t *testing.T) {
		_, cmd := NewView(nil).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("9")})
		assert.Nil(t, cmd)
	})
}
