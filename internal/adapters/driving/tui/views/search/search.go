// Package search is the TUI screen for querying indexed legislation.
package search

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/actions"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/filter"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// ErrNoSearchService is reported when a query is submitted without a
// search service.
var ErrNoSearchService = errors.New("search service is required")

const defaultLimit = 20

// resultAction is an entry of the menu opened on a result.
type resultAction int

const (
	actionCopy resultAction = iota
	actionOpen
	actionChunks
	actionCancel
)

// View has two modes: typing a query, and moving over the results of the
// last one. Mode and type filter survive both.
type View struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	input   *input.QueryInput
	results *list.ResultList
	bar     *status.Bar
	menu    *actions.Menu[resultAction]

	searchService driving.SearchService
	actionService driving.ResultActionService
	ctx           context.Context

	mode       domain.SearchMode
	typeFilter domain.DocumentType
	limit      int

	typing bool
	err    error
	width  int
	height int
	ready  bool
}

// NewView creates the search view with the input focused. The action
// service is optional; without it copy and open report as unavailable.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	searchService driving.SearchService,
	actionService driving.ResultActionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:  s,
		keys:    km,
		input:   input.NewSearchInput(s),
		results: list.NewResultList(s),
		bar:     status.NewBar(s, km),
		menu: actions.New(s,
			actions.Option[resultAction]{Value: actionCopy, Label: "Copy passage"},
			actions.Option[resultAction]{Value: actionOpen, Label: "Open document"},
			actions.Option[resultAction]{Value: actionChunks, Label: "Show chunks"},
			actions.Option[resultAction]{Value: actionCancel, Label: "Cancel"},
		),
		searchService: searchService,
		actionService: actionService,
		ctx:           context.Background(),
		limit:         defaultLimit,
		typing:        true,
		width:         80,
		height:        24,
	}
}

// WithContext sets the context passed to the services.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blink.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update implements the view's part of tea.Model.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		return v.handleKey(msg)
	case messages.SearchCompleted:
		v.showResults(msg)
		return v, nil
	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.menu.Visible() {
		if act, ok := v.menu.HandleKey(msg); ok {
			return v, v.run(act, v.results.SelectedResult())
		}
		return v, nil
	}

	k := msg.String()
	switch {
	case keymap.Matches(k, v.keys.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case keymap.Matches(k, v.keys.Mode):
		v.mode = filter.NextMode(v.mode)
		v.bar.SetMode(v.mode)
		return v, nil
	case keymap.Matches(k, v.keys.TypeFilter):
		v.typeFilter = filter.NextType(v.typeFilter)
		v.bar.SetTypeFilter(v.typeFilter)
		return v, nil
	}

	if v.typing {
		return v.handleTyping(msg)
	}

	switch {
	case keymap.Matches(k, v.keys.Actions):
		if res := v.results.SelectedResult(); res != nil {
			v.menu.Open("Actions for: " + list.DocumentTitle(&res.Document))
		}
	case keymap.Matches(k, v.keys.NewQuery):
		v.typing = true
		v.input.SetValue("")
		return v, v.input.Focus()
	default:
		v.results, _ = v.results.Update(msg)
	}
	return v, nil
}

func (v *View) handleTyping(msg tea.KeyMsg) (*View, tea.Cmd) {
	if !keymap.Matches(msg.String(), v.keys.Submit) {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	query := strings.TrimSpace(v.input.Value())
	if query == "" {
		return v, nil
	}
	v.typing = false
	v.input.Blur()
	v.bar.SetState(status.StateSearching)
	return v, v.search(query)
}

func (v *View) search(query string) tea.Cmd {
	svc, ctx := v.searchService, v.ctx
	opts := domain.SearchOptions{
		Limit:  v.limit,
		Mode:   v.mode,
		Filter: domain.ChunkFilter{DocumentTypes: filter.Types(v.typeFilter)},
	}
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, query, opts)
		return messages.SearchCompleted{Results: results, Err: err}
	}
}

// run performs a menu action on res. Copy and open are synchronous and
// report through the status line.
func (v *View) run(act resultAction, res *domain.SearchResult) tea.Cmd {
	if res == nil {
		return nil
	}

	switch act {
	case actionCopy:
		v.notify("Copy", "Copied to clipboard", func() error {
			return v.actionService.CopyToClipboard(v.ctx, res)
		})
	case actionOpen:
		v.notify("Open", "Opening document...", func() error {
			return v.actionService.OpenDocument(v.ctx, res)
		})
	case actionChunks:
		doc := res.Document
		return func() tea.Msg { return messages.DocumentSelected{Document: doc} }
	case actionCancel:
	}
	return nil
}

func (v *View) notify(verb, done string, do func() error) {
	if v.actionService == nil {
		v.bar.SetMessage(verb + " not available")
		return
	}
	if err := do(); err != nil {
		v.bar.SetMessage(verb + ": " + err.Error())
		return
	}
	v.bar.SetMessage(done)
}

func (v *View) showResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.typing = false
	v.input.Blur()
	v.results.SetResults(msg.Results)
	v.bar.SetState(status.StateResults)
	v.bar.SetMessage("")
	v.bar.SetResultCount(len(msg.Results))
}

func (v *View) setError(err error) {
	v.err = err
	v.bar.SetState(status.StateError)
	v.bar.SetMessage(err.Error())
}

// View renders the input, results or action menu, and the status bar.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	parts := []string{v.styles.Title.Render("Search legislation"), "", v.input.View(), ""}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	parts = append(parts, v.results.View())
	if v.menu.Visible() {
		parts = append(parts, "", v.styles.Border.Padding(0, 1).Render(v.menu.View()))
	}
	if note := v.bar.Message(); note != "" && v.err == nil {
		parts = append(parts, "", v.styles.Muted.Render(note))
	}
	parts = append(parts, "", v.bar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions sizes the input, list and bar. The list gets what is left
// after the title, input and bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.results.SetDimensions(width, height-10)
	v.bar.SetWidth(width)
}

// Reset returns to an empty query with the input focused.
func (v *View) Reset() {
	v.typing = true
	v.input.SetValue("")
	v.input.Focus()
	v.results.SetResults(nil)
	v.menu.Close()
	v.err = nil
	v.bar.Clear()
}

// Ready reports whether the view has its dimensions.
func (v *View) Ready() bool { return v.ready }

// Query returns the input text.
func (v *View) Query() string { return v.input.Value() }

// SetQuery replaces the input text.
func (v *View) SetQuery(query string) { v.input.SetValue(query) }

// Mode returns the selected search mode; empty means the configured default.
func (v *View) Mode() domain.SearchMode { return v.mode }

// TypeFilter returns the selected document type; empty means all types.
func (v *View) TypeFilter() domain.DocumentType { return v.typeFilter }

// Results returns the results of the last query.
func (v *View) Results() []domain.SearchResult { return v.results.Results() }

// SelectedIndex returns the result cursor.
func (v *View) SelectedIndex() int { return v.results.Selected() }

// SelectedResult returns the result under the cursor.
func (v *View) SelectedResult() *domain.SearchResult { return v.results.SelectedResult() }

// ActionMenuVisible reports whether the result menu is open.
func (v *View) ActionMenuVisible() bool { return v.menu.Visible() }

// StatusMessage returns the last notice.
func (v *View) StatusMessage() string { return v.bar.Message() }

// InputFocused reports whether keys go to the query input.
func (v *View) InputFocused() bool { return v.typing }

// Err returns the last error.
func (v *View) Err() error { return v.err }
