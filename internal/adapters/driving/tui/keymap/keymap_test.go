package keymap

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		key     string
		binding key.Binding
		want    bool
	}{
		{"q", km.Quit, true},
		{"ctrl+c", km.Quit, true},
		{"x", km.Quit, false},
		{"esc", km.Back, true},
		{"tab", km.Mode, true},
		{"ctrl+t", km.TypeFilter, true},
		{"ctrl+g", km.ToggleLLM, true},
		{"k", km.Up, true},
		{"j", km.Down, true},
		{"ctrl+d", km.PageDown, true},
		{"pgup", km.PageUp, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, tt.binding))
		})
	}
}

func TestMatches_Disabled(t *testing.T) {
	km := DefaultKeyMap()
	km.Reload.SetEnabled(false)

	assert.False(t, Matches("r", km.Reload))
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, "search", km.InputHelp()[0].Help().Desc)
	assert.Equal(t, "new search", km.ResultsHelp()[0].Help().Desc)
	assert.Equal(t, km.InputHelp(), km.ShortHelp())
	assert.Len(t, km.FullHelp(), 3)
}

func TestKeyMap_RendersThroughHelp(t *testing.T) {
	h := help.New()

	short := h.View(DefaultKeyMap())
	assert.Contains(t, short, "enter search")
	assert.Contains(t, short, "ctrl+t type")

	h.ShowAll = true
	full := h.View(DefaultKeyMap())
	assert.Contains(t, full, "page down")
	assert.Contains(t, full, "llm on/off")
	assert.Greater(t, strings.Count(full, "\n"), 2)
}
