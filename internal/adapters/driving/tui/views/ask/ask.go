// Package ask provides the question answering view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/filter"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// ErrNoAskService indicates that no ask service was provided.
var ErrNoAskService = errors.New("ask service is required")

// View asks a question and shows the answer with its sources.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   *input.QueryInput
	service driving.AskService
	ctx     context.Context

	useLLM     bool
	typeFilter domain.DocumentType
	asking     bool
	answer     *domain.Answer
	err        error

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view with answer generation enabled.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:  s,
		keymap:  km,
		input:   input.NewQuestionInput(s),
		service: service,
		ctx:     context.Background(),
		useLLM:  true,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.AnswerCompleted:
		v.asking = false
		v.answer = msg.Answer
		v.err = msg.Err
		return v, nil

	case messages.ErrorOccurred:
		v.asking = false
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(keyStr, v.keymap.ToggleLLM):
		v.useLLM = !v.useLLM
		return v, nil
	case keymap.Matches(keyStr, v.keymap.TypeFilter):
		v.typeFilter = filter.NextType(v.typeFilter)
		return v, nil
	case keymap.Matches(keyStr, v.keymap.Submit):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.asking {
			return v, nil
		}
		v.asking = true
		v.err = nil
		v.answer = nil
		return v, v.ask(question)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) ask(question string) tea.Cmd {
	opts := driving.AskOptions{
		UseLLM: v.useLLM,
		Filter: domain.ChunkFilter{DocumentTypes: filter.Types(v.typeFilter)},
	}
	return func() tea.Msg {
		if v.service == nil {
			return messages.ErrorOccurred{Err: ErrNoAskService}
		}
		answer, err := v.service.Ask(v.ctx, question, opts)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Ask a legal question"), "", v.input.View(), v.renderOptions(), ""}

	switch {
	case v.asking:
		sections = append(sections, v.styles.Muted.Render("Thinking..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.answer != nil:
		sections = append(sections, v.renderAnswer())
	}

	sections = append(sections, "", v.styles.Help.Render("[enter] Ask  [ctrl+g] LLM on/off  [ctrl+t] Type  [esc] Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderOptions() string {
	llm := "on"
	if !v.useLLM {
		llm = "off"
	}
	docType := "all"
	if v.typeFilter != "" {
		docType = v.typeFilter.Label()
	}
	return v.styles.Muted.Render(fmt.Sprintf("LLM: %s  Type: %s", llm, docType))
}

func (v *View) renderAnswer() string {
	var b strings.Builder

	if v.answer.Text != "" {
		b.WriteString(v.styles.Subtitle.Render("Answer"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(v.width - 2).Render(v.answer.Text))
		b.WriteString("\n\n")
	}

	if len(v.answer.Sources) == 0 {
		b.WriteString(v.styles.Muted.Render("No relevant passages found."))
		return b.String()
	}

	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(v.answer.Sources))))
	for i := range v.answer.Sources {
		src := &v.answer.Sources[i]
		line := fmt.Sprintf("\n  [%d] %s", i+1, list.DocumentTitle(&src.Document))
		b.WriteString(v.styles.Normal.Render(line))
		if articles := list.ChunkArticles(&src.Chunk); len(articles) > 0 {
			b.WriteString(" " + v.styles.Article.Render(strings.Join(articles, ", ")))
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf(" (%.2f)", src.Score)))
	}

	if v.answer.Model != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s in %s", v.answer.Model, v.answer.ProcessingTime.Round(1e6))))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
}

// Reset clears the question and the last answer. Options are kept.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	v.asking = false
	v.answer = nil
	v.err = nil
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// UseLLM reports whether answers are generated.
func (v *View) UseLLM() bool {
	return v.useLLM
}

// TypeFilter returns the selected document type; empty means all types.
func (v *View) TypeFilter() domain.DocumentType {
	return v.typeFilter
}

// Asking reports whether a question is in flight.
func (v *View) Asking() bool {
	return v.asking
}

// Answer returns the last answer.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
