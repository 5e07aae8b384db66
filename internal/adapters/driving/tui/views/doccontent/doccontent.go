// Package doccontent shows the chunks of a document, one header per chunk.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when chunks are requested without a
// document service.
var ErrNoDocumentService = errors.New("document service not available")

// title, rule, blank, footer and help
const chromeLines = 6

// View scrolls through the chunks of one document. Esc returns to the
// view that opened it.
type View struct {
	styles   *styles.Styles
	service  driving.DocumentService
	ctx      context.Context
	viewport viewport.Model

	document *domain.Document
	chunks   []domain.Chunk
	lines    int
	back     messages.ViewType

	loading bool
	err     error
	width   int
}

// NewView creates the view.
func NewView(s *styles.Styles, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		service:  service,
		ctx:      context.Background(),
		viewport: viewport.New(80, 24-chromeLines),
		back:     messages.ViewDocuments,
		width:    80,
	}
}

// WithContext sets the context passed to the document service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument clears the view and loads the chunks of doc.
func (v *View) SetDocument(doc *domain.Document, back messages.ViewType) tea.Cmd {
	v.document = doc
	v.back = back
	v.chunks = nil
	v.err = nil
	v.loading = true
	v.refresh()

	svc, ctx := v.service, v.ctx
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.ChunksLoaded{Err: ErrNoDocumentService}
		}
		chunks, err := svc.Chunks(ctx, doc.ID, "")
		return messages.ChunksLoaded{DocumentID: doc.ID, Chunks: chunks, Err: err}
	}
}

func (v *View) Init() tea.Cmd { return nil }

// Update handles loads, esc and scrolling. Chunks of another document
// are dropped.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ChunksLoaded:
		if v.document != nil && msg.DocumentID != "" && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.chunks = msg.Chunks
			v.refresh()
		}
		return v, nil

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			back := v.back
			return v, func() tea.Msg { return messages.ViewChanged{View: back} }
		case "home", "g":
			v.viewport.GotoTop()
			return v, nil
		case "end", "G":
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// refresh lays the chunks out for the current width, each under a
// "#N [kind] articles" header, and keeps the scroll position.
func (v *View) refresh() {
	width := max(20, v.width-4)

	var rows []string
	for i := range v.chunks {
		c := &v.chunks[i]
		header := fmt.Sprintf("#%d [%s]", c.Position, c.Kind())
		if articles := list.ChunkArticles(c); len(articles) > 0 {
			header += " " + strings.Join(articles, ", ")
		}
		if i > 0 {
			rows = append(rows, "")
		}
		rows = append(rows, v.styles.Article.Render(header))
		for text := range strings.SplitSeq(c.Content, "\n") {
			for _, w := range wrap(text, width) {
				rows = append(rows, v.styles.Normal.Render(w))
			}
		}
	}
	v.lines = len(rows)
	v.viewport.SetContent(strings.Join(rows, "\n"))
}

// wrap splits s into rows of at most width runes.
func wrap(s string, width int) []string {
	runes := []rune(s)
	if len(runes) <= width {
		return []string{s}
	}
	out := make([]string, 0, len(runes)/width+1)
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// View renders the title, the visible chunk lines and a position footer
// when the content overflows.
func (v *View) View() string {
	var b strings.Builder

	title := "Document Chunks"
	if v.document != nil {
		title = list.DocumentTitle(v.document)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n" + strings.Repeat("─", max(0, min(v.width-4, 60))) + "\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.chunks) == 0:
		b.WriteString(v.styles.Muted.Render("(No chunks)"))
	default:
		b.WriteString(v.viewport.View())
		if v.lines > v.viewport.Height {
			first := v.viewport.YOffset + 1
			last := min(v.viewport.YOffset+v.viewport.Height, v.lines)
			b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("  [%3.0f%%] Line %d-%d of %d",
				v.viewport.ScrollPercent()*100, first, last, v.lines)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions resizes the viewport and rewraps the chunks.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.viewport.Width = width
	v.viewport.Height = max(1, height-chromeLines)
	v.refresh()
}

// Document returns the current document.
func (v *View) Document() *domain.Document { return v.document }

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk { return v.chunks }

// LineCount returns the number of laid out lines.
func (v *View) LineCount() int { return v.lines }

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int { return v.viewport.YOffset }

// Err returns the last error.
func (v *View) Err() error { return v.err }
