// Package menu is the start screen of the TUI.
package menu

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
)

// Item is one entry. Label defaults to the view title; a Quit entry ends
// the program instead of switching view.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

func entry(view messages.ViewType, desc string) Item {
	return Item{Label: view.Title(), Description: desc, View: view}
}

// View lists the screens. Entries are picked with the arrows and enter, or
// directly by number.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		items: []Item{
			entry(messages.ViewSearch, "find passages by keyword, meaning or article"),
			entry(messages.ViewAsk, "answer a legal question from indexed legislation"),
			entry(messages.ViewDocuments, "browse diplomas, chunks and metadata"),
			entry(messages.ViewSettings, "search mode, chunk size and AI providers"),
			entry(messages.ViewHelp, "keybindings"),
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init does nothing; the menu has no background work.
func (v *View) Init() tea.Cmd { return nil }

// Update moves the selection or activates an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		v.selected = max(0, v.selected-1)
	case "down", "j":
		v.selected = min(len(v.items)-1, v.selected+1)
	case "enter":
		return v.activate()
	case "q":
		return tea.Quit
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(v.items) {
			v.selected = n - 1
			return v.activate()
		}
	}
	return nil
}

func (v *View) activate() tea.Cmd {
	item := v.items[v.selected]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the entries; only the selected one shows its description.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	rows := []string{
		v.styles.Title.Render("lexrag"),
		"",
		v.styles.Muted.Render("Portuguese legislation search and Q&A"),
		"",
	}
	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i != v.selected {
			rows = append(rows, "  "+v.styles.Normal.Render(label))
			continue
		}
		row := "> " + v.styles.Subtitle.Render(label)
		if item.Description != "" {
			row += v.styles.Muted.Render("  " + item.Description)
		}
		rows = append(rows, row)
	}
	hint := fmt.Sprintf("[j/k] navigate  [enter/1-%d] select  [q] quit", len(v.items))
	rows = append(rows, "", v.styles.Help.Render(hint))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// SetDimensions records the terminal size; the first call makes the view
// ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
}

// Items returns the entries.
func (v *View) Items() []Item { return v.items }

// Selected returns the index of the highlighted entry.
func (v *View) Selected() int { return v.selected }
