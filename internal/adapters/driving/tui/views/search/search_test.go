package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

func (m *MockSearchService) Search(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return []domain.SearchResult{}, nil
}

// MockResultActionService implements driving.ResultActionService for testing.
type MockResultActionService struct {
	copied []*domain.SearchResult
	opened []*domain.SearchResult
	err    error
}

func (m *MockResultActionService) CopyToClipboard(_ context.Context, result *domain.SearchResult) error {
	m.copied = append(m.copied, result)
	return m.err
}

func (m *MockResultActionService) OpenDocument(_ context.Context, result *domain.SearchResult) error {
	m.opened = append(m.opened, result)
	return m.err
}

func testSearchResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Document: domain.Document{ID: "doc-1", Title: "Lei n.º 12/2024", Type: domain.DocumentTypeLei},
			Chunk: domain.Chunk{
				ID:      "chunk-1",
				Content: "Artigo 1.º\nObjeto",
				Meta:    domain.ArticlesMeta{Numbers: []string{"Artigo 1.º"}},
			},
			Score: 0.95,
		},
		{
			Document: domain.Document{ID: "doc-2", Title: "Decreto-Lei n.º 10/2024", Type: domain.DocumentTypeDecretoLei},
			Chunk:    domain.Chunk{ID: "chunk-2", Content: "Preâmbulo", Meta: domain.PreambleMeta{}},
			Score:    0.85,
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// withResults returns a ready view showing testSearchResults.
func withResults(t *testing.T, actions *MockResultActionService) *View {
	t.Helper()
	view := NewView(nil, nil, &MockSearchService{}, actions)
	view.SetDimensions(100, 40)
	view, _ = view.Update(messages.SearchCompleted{Results: testSearchResults()})
	require.False(t, view.InputFocused())
	return view
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), &MockSearchService{}, nil)

	require.NotNil(t, view)
	assert.False(t, view.Ready())
	assert.Equal(t, "", view.Query())
	assert.True(t, view.InputFocused())
	assert.Equal(t, domain.SearchMode(""), view.Mode())
	assert.Equal(t, domain.DocumentType(""), view.TypeFilter())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keys)
}

func TestView_Init(t *testing.T) {
	view := NewView(nil, nil, nil, nil)
	assert.NotNil(t, view.Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil, nil)

	view, cmd := view.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, view.Ready())
	assert.Equal(t, 120, view.width)
}

func TestView_Submit(t *testing.T) {
	var gotQuery string
	var gotOpts domain.SearchOptions
	svc := &MockSearchService{
		SearchFunc: func(_ context.Context, q string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
			gotQuery, gotOpts = q, opts
			return testSearchResults(), nil
		},
	}
	view := NewView(nil, nil, svc, nil)
	view.SetDimensions(100, 40)

	view, _ = view.Update(key("tab"))
	view, _ = view.Update(key("ctrl+t"))
	view.SetQuery("  prazo da renda ")
	view, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, view.InputFocused())

	msg := cmd()
	completed, ok := msg.(messages.SearchCompleted)
	require.True(t, ok)
	assert.Equal(t, "prazo da renda", gotQuery)
	assert.Equal(t, domain.SearchModeVector, gotOpts.Mode)
	assert.Equal(t, []domain.DocumentType{domain.DocumentTypeLei}, gotOpts.Filter.DocumentTypes)
	assert.Equal(t, 20, gotOpts.Limit)

	view, _ = view.Update(completed)
	assert.Len(t, view.Results(), 2)
	assert.NoError(t, view.Err())
}

func TestView_Submit_EmptyQuery(t *testing.T) {
	view := NewView(nil, nil, &MockSearchService{}, nil)

	view, cmd := view.Update(key("enter"))

	assert.Nil(t, cmd)
	assert.True(t, view.InputFocused())
}

func TestView_Submit_NoService(t *testing.T) {
	view := NewView(nil, nil, nil, nil)
	view.SetQuery("renda")

	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoSearchService)
}

func TestView_SearchError(t *testing.T) {
	view := NewView(nil, nil, nil, nil)
	view.SetDimensions(100, 40)
	errSearch := errors.New("index unavailable")

	view, _ = view.Update(messages.SearchCompleted{Err: errSearch})

	assert.ErrorIs(t, view.Err(), errSearch)
	assert.Contains(t, view.View(), "index unavailable")
}

func TestView_ModeCycle(t *testing.T) {
	view := NewView(nil, nil, nil, nil)

	want := []domain.SearchMode{
		domain.SearchModeVector, domain.SearchModeText, domain.SearchModeHybrid, "",
	}
	for _, mode := range want {
		view, _ = view.Update(key("tab"))
		assert.Equal(t, mode, view.Mode())
	}
}

func TestView_Navigation(t *testing.T) {
	view := withResults(t, nil)

	view, _ = view.Update(key("j"))
	assert.Equal(t, 1, view.SelectedIndex())
	view, _ = view.Update(key("j"))
	assert.Equal(t, 1, view.SelectedIndex())
	view, _ = view.Update(key("k"))
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_Navigation_KeysGoToInputWhileTyping(t *testing.T) {
	view := NewView(nil, nil, &MockSearchService{}, nil)

	view, _ = view.Update(key("j"))

	assert.Equal(t, "j", view.Query())
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_NewQuery(t *testing.T) {
	view := withResults(t, nil)

	view, _ = view.Update(key("n"))

	assert.True(t, view.InputFocused())
	assert.Equal(t, "", view.Query())
}

func TestView_Escape(t *testing.T) {
	view := NewView(nil, nil, nil, nil)

	_, cmd := view.Update(key("esc"))
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Actions(t *testing.T) {
	t.Run("copy passage", func(t *testing.T) {
		actions := &MockResultActionService{}
		view := withResults(t, actions)

		view, _ = view.Update(key("enter"))
		require.True(t, view.ActionMenuVisible())
		assert.Contains(t, view.View(), "Actions for: Lei n.º 12/2024")
		view, _ = view.Update(key("enter"))

		assert.False(t, view.ActionMenuVisible())
		require.Len(t, actions.copied, 1)
		assert.Equal(t, "chunk-1", actions.copied[0].Chunk.ID)
		assert.Equal(t, "Copied to clipboard", view.StatusMessage())
	})

	t.Run("open document", func(t *testing.T) {
		actions := &MockResultActionService{}
		view := withResults(t, actions)
		view, _ = view.Update(key("j"))

		view, _ = view.Update(key("enter"))
		view, _ = view.Update(key("j"))
		view, _ = view.Update(key("enter"))

		require.Len(t, actions.opened, 1)
		assert.Equal(t, "doc-2", actions.opened[0].Document.ID)
		assert.Equal(t, "Opening document...", view.StatusMessage())
	})

	t.Run("action error", func(t *testing.T) {
		actions := &MockResultActionService{err: errors.New("no clipboard")}
		view := withResults(t, actions)

		view, _ = view.Update(key("enter"))
		view, _ = view.Update(key("enter"))

		assert.Equal(t, "Copy: no clipboard", view.StatusMessage())
	})

	t.Run("show chunks", func(t *testing.T) {
		view := withResults(t, &MockResultActionService{})

		view, _ = view.Update(key("enter"))
		view, _ = view.Update(key("j"))
		view, _ = view.Update(key("j"))
		_, cmd := view.Update(key("enter"))
		require.NotNil(t, cmd)

		selected, ok := cmd().(messages.DocumentSelected)
		require.True(t, ok)
		assert.Equal(t, "doc-1", selected.Document.ID)
	})

	t.Run("no action service", func(t *testing.T) {
		view := withResults(t, nil)

		view, _ = view.Update(key("enter"))
		view, _ = view.Update(key("enter"))

		assert.Equal(t, "Copy not available", view.StatusMessage())
	})

	t.Run("escape closes menu", func(t *testing.T) {
		view := withResults(t, &MockResultActionService{})

		view, _ = view.Update(key("enter"))
		view, cmd := view.Update(key("esc"))

		assert.Nil(t, cmd)
		assert.False(t, view.ActionMenuVisible())
	})
}

func TestView_View(t *testing.T) {
	view := withResults(t, nil)

	out := view.View()

	assert.Contains(t, out, "Search legislation")
	assert.Contains(t, out, "Lei n.º 12/2024")
	assert.Contains(t, out, "Artigo 1.º")
	assert.Contains(t, out, "Results (2)")
}

func TestView_View_NotReady(t *testing.T) {
	view := NewView(nil, nil, nil, nil)
	assert.Equal(t, "Initialising...", view.View())
}

func TestView_Reset(t *testing.T) {
	view := withResults(t, nil)
	view, _ = view.Update(key("tab"))

	view.Reset()

	assert.True(t, view.InputFocused())
	assert.Empty(t, view.Results())
	assert.NoError(t, view.Err())
	assert.Equal(t, domain.SearchModeVector, view.Mode())
}
