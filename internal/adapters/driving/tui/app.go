package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// screen adapts one view to the app. enter may be nil.
type screen struct {
	update func(tea.Msg) tea.Cmd
	render func() string
	resize func(width, height int)
	enter  func() tea.Cmd
}

// App routes messages between the views. Service replies go to the view
// that asked for them, everything else to the active screen.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	search     *search.View
	ask        *ask.View
	documents  *documents.View
	docContent *doccontent.View
	docDetails *docdetails.View
	settings   *settings.View
	screens    map[messages.ViewType]screen

	active   messages.ViewType
	selected *domain.Document
	err      error

	width, height int
	ready         bool
}

var _ tea.Model = (*App)(nil)

// NewApp builds every view over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keys:       km,
		search:     search.NewView(s, km, ports.Search, ports.ResultAction),
		ask:        ask.NewView(s, km, ports.Ask),
		documents:  documents.NewView(s, ports.Document),
		docContent: doccontent.NewView(s, ports.Document),
		docDetails: docdetails.NewView(s),
		settings:   settings.NewView(s, ports.Settings),
		active:     messages.ViewMenu,
	}
	a.screens = a.buildScreens(menu.NewView(s))
	return a, nil
}

func (a *App) buildScreens(m *menu.View) map[messages.ViewType]screen {
	return map[messages.ViewType]screen{
		messages.ViewMenu: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { m, cmd = m.Update(msg); return cmd },
			render: m.View,
			resize: m.SetDimensions,
		},
		messages.ViewSearch: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { a.search, cmd = a.search.Update(msg); return cmd },
			render: a.search.View,
			resize: a.search.SetDimensions,
			enter:  func() tea.Cmd { a.search.Reset(); return a.search.Init() },
		},
		messages.ViewAsk: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { a.ask, cmd = a.ask.Update(msg); return cmd },
			render: a.ask.View,
			resize: a.ask.SetDimensions,
			enter:  func() tea.Cmd { a.ask.Reset(); return a.ask.Init() },
		},
		messages.ViewDocuments: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { a.documents, cmd = a.documents.Update(msg); return cmd },
			render: a.documents.View,
			resize: a.documents.SetDimensions,
			enter:  a.documents.Init,
		},
		messages.ViewDocContent: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { a.docContent, cmd = a.docContent.Update(msg); return cmd },
			render: a.docContent.View,
			resize: a.docContent.SetDimensions,
		},
		messages.ViewDocDetails: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { a.docDetails, cmd = a.docDetails.Update(msg); return cmd },
			render: a.docDetails.View,
			resize: a.docDetails.SetDimensions,
		},
		messages.ViewSettings: {
			update: func(msg tea.Msg) (cmd tea.Cmd) { a.settings, cmd = a.settings.Update(msg); return cmd },
			render: a.settings.View,
			resize: a.settings.SetDimensions,
			enter:  func() tea.Cmd { a.settings.Reset(); return a.settings.Init() },
		},
		messages.ViewHelp: {
			update: func(msg tea.Msg) tea.Cmd {
				if km, ok := msg.(tea.KeyMsg); ok && km.Type == tea.KeyEsc {
					a.active = messages.ViewMenu
				}
				return nil
			},
			render: a.helpView,
			resize: func(int, int) {},
		},
	}
}

// WithContext sets the context used by every view's service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.search.WithContext(ctx)
	a.ask.WithContext(ctx)
	a.documents.WithContext(ctx)
	a.docContent.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return windowTitle(messages.ViewMenu)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
	case messages.Quit:
		return a, tea.Quit
	case messages.ViewChanged:
		a.active = msg.View
		cmd := windowTitle(msg.View)
		if enter := a.screens[msg.View].enter; enter != nil {
			cmd = tea.Batch(cmd, enter())
		}
		return a, cmd

	case messages.SearchCompleted:
		cmd := a.screens[messages.ViewSearch].update(msg)
		a.err = a.search.Err()
		return a, cmd
	case messages.AnswerCompleted:
		cmd := a.screens[messages.ViewAsk].update(msg)
		a.err = a.ask.Err()
		return a, cmd
	case messages.DocumentsLoaded, messages.DocumentDeleted:
		return a, a.screens[messages.ViewDocuments].update(msg)
	case messages.ChunksLoaded:
		return a, a.screens[messages.ViewDocContent].update(msg)
	case messages.SettingsLoaded, messages.SettingsSaved:
		return a, a.screens[messages.ViewSettings].update(msg)

	case messages.DocumentSelected:
		return a, a.openChunks(msg.Document)
	case messages.DocumentDetailsLoaded:
		return a, a.openDetails(msg)
	case messages.ErrorOccurred:
		a.err = msg.Err
	}
	return a, a.screens[a.active].update(msg)
}

// openChunks shows the chunk browser; esc leads back to search when the
// document was picked from a result.
func (a *App) openChunks(doc domain.Document) tea.Cmd {
	back := messages.ViewDocuments
	if a.active == messages.ViewSearch {
		back = messages.ViewSearch
	}
	a.selected = &doc
	a.active = messages.ViewDocContent
	return a.docContent.SetDocument(&doc, back)
}

func (a *App) openDetails(msg messages.DocumentDetailsLoaded) tea.Cmd {
	if msg.Err != nil {
		a.err = msg.Err
		return a.screens[messages.ViewDocuments].update(messages.ErrorOccurred{Err: msg.Err})
	}
	if msg.Details == nil {
		return nil
	}
	doc := msg.Details.Document
	a.selected = &doc
	a.docDetails.SetDetails(msg.Details)
	a.active = messages.ViewDocDetails
	return nil
}

func windowTitle(view messages.ViewType) tea.Cmd {
	if view == messages.ViewMenu {
		return tea.SetWindowTitle("lexrag")
	}
	return tea.SetWindowTitle("lexrag - " + view.Title())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if s, ok := a.screens[a.active]; ok {
		return s.render()
	}
	return a.screens[messages.ViewMenu].render()
}

// viewNotes describes the keys whose meaning depends on the view.
var viewNotes = []struct {
	view messages.ViewType
	text string
}{
	{messages.ViewSearch, "tab cycles default, vector, text and hybrid; enter on a result copies, opens or shows its chunks"},
	{messages.ViewAsk, "ctrl+g answers from retrieved passages only, without the LLM"},
	{messages.ViewDocuments, "enter shows chunks, details, opens or deletes the document"},
	{messages.ViewDocDetails, "c lists the chunks of the document"},
}

func (a *App) helpView() string {
	h := help.New()
	h.ShowAll = true
	h.Width = a.width
	h.Styles.FullKey = a.styles.Subtitle
	h.Styles.FullDesc = a.styles.Normal

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help") + "\n\n")
	b.WriteString(h.View(a.keys) + "\n\n")
	for _, note := range viewNotes {
		b.WriteString(a.styles.Subtitle.Render(fmt.Sprintf("%-10s", note.view.Title())))
		b.WriteString(a.styles.Muted.Render(note.text) + "\n")
	}
	b.WriteString("\n" + a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI on the alternate screen until quit or ctx ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView returns the active screen.
func (a *App) CurrentView() messages.ViewType { return a.active }

// SelectedDocument returns the document last opened for chunks or details.
func (a *App) SelectedDocument() *domain.Document { return a.selected }

// Err returns the last error.
func (a *App) Err() error { return a.err }

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every screen.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	for _, s := range a.screens {
		s.resize(width, height)
	}
}
