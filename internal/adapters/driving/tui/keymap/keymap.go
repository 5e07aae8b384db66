// Package keymap holds the TUI key bindings. KeyMap satisfies
// help.KeyMap so the bindings render through bubbles/help.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups the bindings shared by the views.
type KeyMap struct {
	Quit key.Binding
	Back key.Binding
	Help key.Binding

	// query entry
	Submit     key.Binding
	Mode       key.Binding
	TypeFilter key.Binding
	ToggleLLM  key.Binding

	// result lists
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Actions  key.Binding
	NewQuery key.Binding
	Reload   key.Binding
}

var _ help.KeyMap = (*KeyMap)(nil)

func binding(help string, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the bindings used by every view.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: binding("q", "quit", "q", "ctrl+c"),
		Back: binding("esc", "back", "esc"),
		Help: binding("?", "help", "?"),

		Submit:     binding("enter", "search", "enter"),
		Mode:       binding("tab", "mode", "tab"),
		TypeFilter: binding("ctrl+t", "type", "ctrl+t"),
		ToggleLLM:  binding("ctrl+g", "llm on/off", "ctrl+g"),

		Up:       binding("↑/k", "up", "up", "k"),
		Down:     binding("↓/j", "down", "down", "j"),
		PageUp:   binding("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: binding("pgdn", "page down", "pgdown", "ctrl+d"),
		Actions:  binding("enter", "actions", "enter"),
		NewQuery: binding("n", "new search", "n"),
		Reload:   binding("r", "reload", "r"),
	}
}

// InputHelp lists the bindings active while a query is being typed.
func (k *KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Mode, k.TypeFilter, k.Back}
}

// ResultsHelp lists the bindings active on a result list.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Up, k.Actions, k.Back}
}

// ShortHelp implements help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return k.InputHelp()
}

// FullHelp implements help.KeyMap. Columns are query entry, lists and
// navigation.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Mode, k.TypeFilter, k.ToggleLLM},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Actions, k.NewQuery, k.Reload},
		{k.Back, k.Help, k.Quit},
	}
}

// Matches reports whether keyStr is one of the binding's keys. Disabled
// bindings never match.
func Matches(keyStr string, b key.Binding) bool {
	return b.Enabled() && slices.Contains(b.Keys(), keyStr)
}
