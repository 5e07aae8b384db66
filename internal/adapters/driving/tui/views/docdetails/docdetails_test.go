package docdetails

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

func testDetails() *driving.DocumentDetails {
	return &driving.DocumentDetails{
		Document: domain.Document{
			ID:              "doc-1",
			Title:           "Lei n.º 12/2024",
			Type:            domain.DocumentTypeLei,
			Number:          "12/2024",
			PublicationDate: "2024-03-14",
			Source:          domain.SourceDiarioRepublica,
			URI:             "https://diariodarepublica.pt/dr/detalhe/lei/12-2024",
			CreatedAt:       time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		},
		ChunkCount:   3,
		ArticleCount: 7,
		KindCounts: map[domain.ChunkKind]int{
			domain.ChunkKindArticles: 2,
			domain.ChunkKindPreamble: 1,
		},
		LawReferences: []string{"Decreto-Lei n.º 10/2024"},
		Metadata:      map[string]string{"summary": "Regula o arrendamento"},
	}
}

func plainRows(v *View) []string {
	rows := v.rows()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String()
	}
	return out
}

func TestView_Rows(t *testing.T) {
	view := NewView(nil)
	view.SetDetails(testDetails())

	lines := plainRows(view)

	assert.Contains(t, lines, "ID:          doc-1")
	assert.Contains(t, lines, "Type:        Lei")
	assert.Contains(t, lines, "Number:      12/2024")
	assert.Contains(t, lines, "Published:   2024-03-14")
	assert.Contains(t, lines, "Source:      diario_republica")
	assert.Contains(t, lines, "Chunks:      3")
	assert.Contains(t, lines, "Articles:    7")
	assert.Contains(t, lines, "Created:     2024-03-15 10:00:00")
	assert.Contains(t, lines, "  - Decreto-Lei n.º 10/2024")
	assert.Contains(t, lines, "  summary: Regula o arrendamento")
	for _, l := range lines {
		assert.NotContains(t, l, "Updated:")
	}
}

func TestView_Rows_KindsSorted(t *testing.T) {
	view := NewView(nil)
	view.SetDetails(testDetails())

	lines := plainRows(view)
	articles := indexOf(lines, "  articles: 2")
	preamble := indexOf(lines, "  preamble: 1")
	require.NotEqual(t, -1, articles)
	require.NotEqual(t, -1, preamble)
	assert.Less(t, articles, preamble)
}

func TestView_Rows_MinimalDocument(t *testing.T) {
	view := NewView(nil)
	view.SetDetails(&driving.DocumentDetails{Document: domain.Document{ID: "doc-2", Type: domain.DocumentTypeOther}})

	for _, l := range plainRows(view) {
		assert.NotContains(t, l, "Number:")
		assert.NotContains(t, l, "Law references:")
		assert.NotContains(t, l, "Metadata:")
	}
}

func TestView_View(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 60)

	assert.Contains(t, view.View(), "No document details available")

	view.SetDetails(testDetails())
	out := view.View()
	assert.Contains(t, out, "Document Details")
	assert.Contains(t, out, "Law references:")
	assert.Contains(t, out, "Chunk kinds:")
	assert.Contains(t, out, "[c] chunks")
	assert.NotContains(t, out, "%]")
}

func TestView_Error(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 40)

	view, _ = view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Contains(t, view.View(), "Error: boom")
	view.SetDetails(testDetails())
	assert.NoError(t, view.Err())
}

func TestView_Scroll(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 10)
	view.SetDetails(testDetails())
	require.Greater(t, len(view.rows()), view.viewport.Height)

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.viewport.YOffset)
	assert.Contains(t, view.View(), "%]")

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.viewport.YOffset)

	view.viewport.GotoBottom()
	view.SetDetails(testDetails())
	assert.Equal(t, 0, view.viewport.YOffset)
}

func TestView_ShowChunks(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Nil(t, cmd)

	view.SetDetails(testDetails())
	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "doc-1", msg.Document.ID)
}

func TestView_Escape(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func indexOf(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}
