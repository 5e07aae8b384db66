// Package docdetails shows the metadata of one indexed document.
package docdetails

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	labelWidth = 12
	// title, rule, blank line and help footer
	chromeLines = 5
)

type rowKind int

const (
	rowField rowKind = iota
	rowHeading
	rowItem
	rowBlank
)

type row struct {
	kind  rowKind
	label string
	value string
}

// String is the unstyled form of the row.
func (r row) String() string {
	switch r.kind {
	case rowField:
		return fmt.Sprintf("%-*s %s", labelWidth, r.label+":", r.value)
	case rowHeading:
		return r.label + ":"
	case rowItem:
		if r.label == "" {
			return "  - " + r.value
		}
		return fmt.Sprintf("  %s: %s", r.label, r.value)
	default:
		return ""
	}
}

// View is the document details view. Content scrolls in a viewport.
type View struct {
	styles   *styles.Styles
	details  *driving.DocumentDetails
	viewport viewport.Model
	width    int
	height   int
	err      error
}

// NewView creates the details view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		viewport: viewport.New(80, 24-chromeLines),
		width:    80,
		height:   24,
	}
}

// SetDetails replaces the shown document and scrolls to the top.
func (v *View) SetDetails(details *driving.DocumentDetails) {
	v.details = details
	v.err = nil
	v.refresh()
	v.viewport.GotoTop()
}

// SetError shows err instead of the details.
func (v *View) SetError(err error) {
	v.err = err
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update scrolls the content or leaves the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		case "c", "enter":
			if v.details == nil {
				return v, nil
			}
			doc := v.details.Document
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: doc}
			}
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) rows() []row {
	if v.details == nil {
		return nil
	}
	d := v.details
	doc := d.Document

	rows := []row{
		{kind: rowField, label: "ID", value: doc.ID},
		{kind: rowField, label: "Title", value: doc.Title},
		{kind: rowField, label: "Type", value: doc.Type.Label()},
	}
	if doc.Number != "" {
		rows = append(rows, row{kind: rowField, label: "Number", value: doc.Number})
	}
	if doc.PublicationDate != "" {
		rows = append(rows, row{kind: rowField, label: "Published", value: doc.PublicationDate})
	}
	rows = append(rows,
		row{kind: rowField, label: "Source", value: string(doc.Source)},
		row{kind: rowField, label: "URI", value: doc.URI},
		row{kind: rowField, label: "Chunks", value: fmt.Sprint(d.ChunkCount)},
		row{kind: rowField, label: "Articles", value: fmt.Sprint(d.ArticleCount)},
	)
	if !doc.CreatedAt.IsZero() {
		rows = append(rows, row{kind: rowField, label: "Created", value: doc.CreatedAt.Format(timeLayout)})
	}
	if !doc.UpdatedAt.IsZero() {
		rows = append(rows, row{kind: rowField, label: "Updated", value: doc.UpdatedAt.Format(timeLayout)})
	}

	if len(d.KindCounts) > 0 {
		rows = append(rows, row{kind: rowBlank}, row{kind: rowHeading, label: "Chunk kinds"})
		kinds := make([]domain.ChunkKind, 0, len(d.KindCounts))
		for k := range d.KindCounts {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			rows = append(rows, row{kind: rowItem, label: string(k), value: fmt.Sprint(d.KindCounts[k])})
		}
	}

	if len(d.LawReferences) > 0 {
		rows = append(rows, row{kind: rowBlank}, row{kind: rowHeading, label: "Law references"})
		for _, ref := range d.LawReferences {
			rows = append(rows, row{kind: rowItem, value: ref})
		}
	}

	if len(d.Metadata) > 0 {
		rows = append(rows, row{kind: rowBlank}, row{kind: rowHeading, label: "Metadata"})
		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, row{kind: rowItem, label: k, value: list.Truncate(d.Metadata[k], 50)})
		}
	}

	return rows
}

func (v *View) render(r row) string {
	switch r.kind {
	case rowField:
		return v.styles.Subtitle.Render(fmt.Sprintf("%-*s", labelWidth, r.label+":")) + " " + v.styles.Normal.Render(r.value)
	case rowHeading:
		return v.styles.Subtitle.Render(r.String())
	case rowItem:
		return v.styles.Muted.Render(r.String())
	default:
		return ""
	}
}

func (v *View) refresh() {
	rows := v.rows()
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = v.render(r)
	}
	v.viewport.SetContent(strings.Join(lines, "\n"))
}

// View renders the details.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(0, min(v.width-4, 60))))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.details == nil:
		b.WriteString(v.styles.Muted.Render("No document details available"))
	default:
		b.WriteString(v.viewport.View())
		if !v.viewport.AtTop() || !v.viewport.AtBottom() {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%3.0f%%]", v.viewport.ScrollPercent()*100)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] scroll  [c] chunks  [esc] back"))
	return b.String()
}

// SetDimensions resizes the view and its viewport.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(1, height-chromeLines)
	v.refresh()
}

// Details returns the shown document details.
func (v *View) Details() *driving.DocumentDetails {
	return v.details
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
