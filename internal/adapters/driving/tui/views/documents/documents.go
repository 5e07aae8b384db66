// Package documents lists indexed diplomas and opens per-document actions.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/actions"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/filter"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// ErrNoDocumentService is reported by every action when the view has no
// document service.
var ErrNoDocumentService = errors.New("document service not available")

// DefaultLimit is the number of documents loaded per listing.
const DefaultLimit = 200

// title, blank, footer, blank and help
const chromeLines = 8

// ActionOption is an entry of the per-document menu.
type ActionOption int

const (
	ActionShowChunks ActionOption = iota
	ActionShowDetails
	ActionOpenDocument
	ActionDelete
	ActionCancel
)

// View lists the documents of the selected type. Deleting asks for a
// y/n confirmation first.
type View struct {
	styles  *styles.Styles
	service driving.DocumentService
	ctx     context.Context
	menu    *actions.Menu[ActionOption]

	typeFilter domain.DocumentType
	documents  []domain.Document
	cursor     int
	offset     int
	pending    *domain.Document // awaiting delete confirmation

	loading bool
	err     error
	width   int
	height  int
}

// NewView creates the documents view.
func NewView(s *styles.Styles, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		service: service,
		ctx:     context.Background(),
		menu: actions.New(s,
			actions.Option[ActionOption]{Value: ActionShowChunks, Label: "Show chunks"},
			actions.Option[ActionOption]{Value: ActionShowDetails, Label: "Show details"},
			actions.Option[ActionOption]{Value: ActionOpenDocument, Label: "Open document"},
			actions.Option[ActionOption]{Value: ActionDelete, Label: "Delete from index"},
			actions.Option[ActionOption]{Value: ActionCancel, Label: "Cancel"},
		),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context passed to the document service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init resets the cursor and loads the listing for the current filter.
func (v *View) Init() tea.Cmd {
	v.cursor, v.offset = 0, 0
	v.err = nil
	v.pending = nil
	v.menu.Close()
	return v.reload()
}

func (v *View) reload() tea.Cmd {
	v.loading = true
	svc, ctx, docType := v.service, v.ctx, v.typeFilter
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Type: docType, Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx, docType, DefaultLimit)
		return messages.DocumentsLoaded{Type: docType, Documents: docs, Err: err}
	}
}

// Update implements the view's part of tea.Model.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case v.pending != nil:
			return v, v.confirm(msg)
		case v.menu.Visible():
			if act, ok := v.menu.HandleKey(msg); ok {
				return v, v.run(act)
			}
			return v, nil
		}
		return v.handleKey(msg)

	case messages.DocumentsLoaded:
		// A listing for a filter that is no longer selected is stale.
		if msg.Type != v.typeFilter {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.cursor >= len(v.documents) {
				v.cursor, v.offset = 0, 0
			}
		}

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.reload()

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		v.move(-1)
	case "down", "j":
		v.move(1)
	case "pgup", "ctrl+u":
		v.move(-v.pageSize())
	case "pgdown", "ctrl+d":
		v.move(v.pageSize())
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			v.menu.Open("Actions for: " + list.DocumentTitle(doc))
		}
	case "ctrl+t":
		v.typeFilter = filter.NextType(v.typeFilter)
		return v, v.Init()
	case "r":
		return v, v.reload()
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return v, nil
}

func (v *View) move(delta int) {
	if len(v.documents) == 0 {
		return
	}
	v.cursor = max(0, min(v.cursor+delta, len(v.documents)-1))
	page := v.pageSize()
	if v.cursor < v.offset {
		v.offset = v.cursor
	} else if v.cursor >= v.offset+page {
		v.offset = v.cursor - page + 1
	}
}

func (v *View) pageSize() int {
	return max(1, v.height-chromeLines)
}

func (v *View) run(act ActionOption) tea.Cmd {
	doc := v.SelectedDocument()
	if doc == nil {
		return nil
	}
	svc, ctx, id := v.service, v.ctx, doc.ID

	switch act {
	case ActionShowChunks:
		d := *doc
		return func() tea.Msg { return messages.DocumentSelected{Document: d} }
	case ActionShowDetails:
		return func() tea.Msg {
			if svc == nil {
				return messages.ErrorOccurred{Err: ErrNoDocumentService}
			}
			details, err := svc.GetDetails(ctx, id)
			return messages.DocumentDetailsLoaded{DocumentID: id, Details: details, Err: err}
		}
	case ActionOpenDocument:
		return func() tea.Msg {
			if svc == nil {
				return messages.ErrorOccurred{Err: ErrNoDocumentService}
			}
			if err := svc.Open(ctx, id); err != nil {
				return messages.ErrorOccurred{Err: err}
			}
			return nil
		}
	case ActionDelete:
		d := *doc
		v.pending = &d
	case ActionCancel:
	}
	return nil
}

// confirm resolves a pending delete: y deletes, anything else cancels.
func (v *View) confirm(msg tea.KeyMsg) tea.Cmd {
	doc := v.pending
	v.pending = nil
	if msg.String() != "y" {
		return nil
	}

	svc, ctx := v.service, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: doc.ID, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: doc.ID, Err: svc.Delete(ctx, doc.ID)}
	}
}

// View renders the listing, the action menu or the delete prompt.
func (v *View) View() string {
	var b strings.Builder

	typeLabel := "all types"
	if v.typeFilter != "" {
		typeLabel = v.typeFilter.Label()
	}
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents - %s (%d)", typeLabel, len(v.documents))))
	b.WriteString("\n\n")

	help := "[↑/↓] navigate  [enter] actions  [ctrl+t] type  [r] reload  [esc] back"
	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents indexed."))
	case v.pending != nil:
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %q from the index?", list.DocumentTitle(v.pending))))
		help = "[y] delete  [any key] cancel"
	case v.menu.Visible():
		b.WriteString(v.menu.View())
		help = "[↑/↓] navigate  [enter] select  [esc] cancel"
	default:
		b.WriteString(v.renderRows())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(help))
	return b.String()
}

func (v *View) renderRows() string {
	end := min(v.offset+v.pageSize(), len(v.documents))
	titleWidth := max(10, v.width-34)

	rows := make([]string, 0, end-v.offset+2)
	for i := v.offset; i < end; i++ {
		doc := &v.documents[i]
		title := fmt.Sprintf("%-*s", titleWidth, list.Truncate(list.DocumentTitle(doc), titleWidth))
		meta := fmt.Sprintf("%-14s %s", doc.Type.Label(), doc.PublicationDate)
		if i == v.cursor {
			rows = append(rows, v.styles.Selected.Render("> "+title+"  "+meta))
		} else {
			rows = append(rows, v.styles.Normal.Render("  "+title+"  ")+v.styles.Muted.Render(meta))
		}
	}
	if v.offset > 0 || end < len(v.documents) {
		rows = append(rows, "", v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.offset+1, end, len(v.documents))))
	}
	return strings.Join(rows, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document { return v.documents }

// TypeFilter returns the selected document type; empty means all types.
func (v *View) TypeFilter() domain.DocumentType { return v.typeFilter }

// SelectedIndex returns the cursor.
func (v *View) SelectedIndex() int { return v.cursor }

// SelectedDocument returns the document under the cursor, nil when empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.cursor >= len(v.documents) {
		return nil
	}
	return &v.documents[v.cursor]
}

// IsShowingMenu reports whether the action menu is open.
func (v *View) IsShowingMenu() bool { return v.menu.Visible() }

// ConfirmingDelete reports whether a delete awaits confirmation.
func (v *View) ConfirmingDelete() bool { return v.pending != nil }

// Loading reports whether a listing is in flight.
func (v *View) Loading() bool { return v.loading }

// Err returns the last error.
func (v *View) Err() error { return v.err }
