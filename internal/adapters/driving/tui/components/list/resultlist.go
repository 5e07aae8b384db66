// Package list holds the scrollable search result list and the text
// helpers the views share for titles and previews.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// linesPerResult is the height of one rendered result: heading, articles
// and preview.
const linesPerResult = 3

// ResultList is a cursor over search results. The window of visible rows
// follows the cursor and only moves when the cursor leaves it.
type ResultList struct {
	styles  *styles.Styles
	results []domain.SearchResult
	cursor  int
	offset  int
	width   int
	height  int
}

// NewResultList creates an empty list sized for an 80x10 area.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

// Update moves the cursor. It never returns a command.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch key.String() {
	case "up", "k":
		r.MoveUp()
	case "down", "j":
		r.MoveDown()
	case "pgup", "ctrl+u":
		r.move(-r.pageSize())
	case "pgdown", "ctrl+d":
		r.move(r.pageSize())
	case "home", "g":
		r.move(-len(r.results))
	case "end", "G":
		r.move(len(r.results))
	}
	return r, nil
}

// MoveUp moves the cursor one result up.
func (r *ResultList) MoveUp() { r.move(-1) }

// MoveDown moves the cursor one result down.
func (r *ResultList) MoveDown() { r.move(1) }

func (r *ResultList) move(delta int) {
	if len(r.results) == 0 {
		return
	}
	r.cursor = max(0, min(r.cursor+delta, len(r.results)-1))
	r.follow()
}

// follow scrolls the window so the cursor stays visible.
func (r *ResultList) follow() {
	page := r.pageSize()
	switch {
	case r.cursor < r.offset:
		r.offset = r.cursor
	case r.cursor >= r.offset+page:
		r.offset = r.cursor - page + 1
	}
	r.offset = max(0, min(r.offset, len(r.results)-page))
}

// pageSize is the number of results that fit below the heading.
func (r *ResultList) pageSize() int {
	return max(1, (r.height-4)/linesPerResult)
}

// View renders the heading, the visible window and, when the list is
// longer than the window, a position footer.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	end := min(r.offset+r.pageSize(), len(r.results))

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))))
	b.WriteString("\n")
	for i := r.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(r.renderResult(i))
	}
	if r.offset > 0 || end < len(r.results) {
		b.WriteString("\n")
		b.WriteString(r.styles.Muted.Render(fmt.Sprintf("  %d-%d of %d", r.offset+1, end, len(r.results))))
	}
	return b.String()
}

func (r *ResultList) renderResult(i int) string {
	res := &r.results[i]
	titleWidth := max(10, r.width-20)
	title := fmt.Sprintf("%-*s", titleWidth, Truncate(DocumentTitle(&res.Document), titleWidth))
	score := fmt.Sprintf("%.2f", res.Score)

	var heading string
	if i == r.cursor {
		heading = r.styles.Selected.Render("> " + title + "  " + score)
	} else {
		heading = r.styles.Normal.Render("  "+title+"  ") + r.styles.Muted.Render(score)
	}

	lines := []string{heading}
	if articles := ChunkArticles(&res.Chunk); len(articles) > 0 {
		lines = append(lines, r.styles.Article.Render("    "+strings.Join(articles, ", ")))
	}
	lines = append(lines, r.styles.Muted.Render("    "+Preview(res, max(20, r.width-6))))
	return strings.Join(lines, "\n")
}

// Preview returns the first highlight of a result, or its chunk text, on
// a single line of at most width runes.
func Preview(res *domain.SearchResult, width int) string {
	text := res.Chunk.Content
	if len(res.Highlights) > 0 {
		text = res.Highlights[0]
	}
	return Truncate(strings.Join(strings.Fields(text), " "), width)
}

// DocumentTitle falls back from the title to "<type> <number>" and then
// to the document ID.
func DocumentTitle(doc *domain.Document) string {
	switch {
	case doc.Title != "":
		return doc.Title
	case doc.Number != "":
		return doc.Type.Label() + " " + doc.Number
	case doc.ID != "":
		return doc.ID
	default:
		return "(Untitled)"
	}
}

// ChunkArticles returns the article labels of a chunk, nil when it has none.
func ChunkArticles(c *domain.Chunk) []string {
	if c.Meta == nil {
		return nil
	}
	return c.Meta.ArticleNumbers()
}

// Truncate cuts s to n runes, ending in "..." when there is room for it.
func Truncate(s string, n int) string {
	runes := []rune(s)
	switch {
	case len(runes) <= n:
		return s
	case n <= 3:
		return string(runes[:n])
	default:
		return string(runes[:n-3]) + "..."
	}
}

// SetResults replaces the results and resets the cursor.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.cursor = 0
	r.offset = 0
}

// Results returns the listed results.
func (r *ResultList) Results() []domain.SearchResult { return r.results }

// Selected returns the cursor index.
func (r *ResultList) Selected() int { return r.cursor }

// SetSelected moves the cursor to index, ignoring out of range values.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.cursor = index
		r.follow()
	}
}

// SelectedResult returns the result under the cursor, nil when empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.cursor < 0 || r.cursor >= len(r.results) {
		return nil
	}
	return &r.results[r.cursor]
}

// SetDimensions resizes the list and keeps the cursor in view.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
	if len(r.results) > 0 {
		r.follow()
	}
}

// IsEmpty reports whether there are no results.
func (r *ResultList) IsEmpty() bool { return len(r.results) == 0 }
