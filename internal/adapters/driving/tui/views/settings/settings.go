// Package settings provides the settings view for the TUI.
//
// The overview lists the editable settings. Selecting one opens a picker
// of allowed values; provider pickers also take an API key.
package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// overview is the editing index when no picker is open.
const overview = -1

var (
	topKChoices      = []int{3, 5, 10, 20}
	chunkSizeChoices = []int{500, 1000, 1500, 2000}
)

// option is one selectable value of a field.
type option struct {
	value    string
	label    string
	detail   string
	needsKey bool
}

// field is one editable setting.
type field struct {
	label   string
	key     string
	options func(*domain.AppSettings) []option
	current func(*domain.AppSettings) string
	summary func(*domain.AppSettings) string

	// configured is set for provider fields and reports whether the
	// provider has what it needs to run.
	configured func(*domain.AppSettings) bool
}

func defaultFields() []field {
	return []field{
		{
			label: "Search mode",
			key:   "retrieval.mode",
			options: func(*domain.AppSettings) []option {
				modes := domain.AllSearchModes()
				opts := make([]option, len(modes))
				for i, m := range modes {
					opts[i] = option{value: string(m), label: m.Description()}
					if m.RequiresEmbedding() {
						opts[i].detail = "Requires: embedding"
					}
				}
				return opts
			},
			current: func(s *domain.AppSettings) string { return string(s.Retrieval.Mode) },
			summary: func(s *domain.AppSettings) string { return s.Retrieval.Mode.Description() },
		},
		{
			label: "Passages per answer",
			key:   "retrieval.top_k",
			options: func(s *domain.AppSettings) []option {
				return numericOptions(topKChoices, s.Retrieval.TopK, "passages")
			},
			current: func(s *domain.AppSettings) string { return strconv.Itoa(s.Retrieval.TopK) },
			summary: func(s *domain.AppSettings) string { return fmt.Sprintf("%d passages", s.Retrieval.TopK) },
		},
		{
			label: "Max chunk size",
			key:   "chunking.max_chunk_size",
			options: func(s *domain.AppSettings) []option {
				return numericOptions(chunkSizeChoices, s.Chunking.MaxChunkSize, "characters")
			},
			current: func(s *domain.AppSettings) string { return strconv.Itoa(s.Chunking.MaxChunkSize) },
			summary: func(s *domain.AppSettings) string {
				return fmt.Sprintf("%d characters (min %d)", s.Chunking.MaxChunkSize, s.Chunking.MinChunkSize)
			},
		},
		{
			label: "Embedding provider",
			key:   "embedding.provider",
			options: func(*domain.AppSettings) []option {
				return providerOptions(domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
			},
			current: func(s *domain.AppSettings) string { return string(s.Embedding.Provider) },
			summary: func(s *domain.AppSettings) string {
				return providerSummary(s.Embedding.Provider, s.Embedding.Model)
			},
			configured: func(s *domain.AppSettings) bool { return s.Embedding.IsConfigured() },
		},
		{
			label: "LLM provider",
			key:   "llm.provider",
			options: func(*domain.AppSettings) []option {
				return providerOptions(domain.AllLLMProviders(), domain.DefaultLLMModels())
			},
			current: func(s *domain.AppSettings) string { return string(s.LLM.Provider) },
			summary: func(s *domain.AppSettings) string {
				return providerSummary(s.LLM.Provider, s.LLM.Model)
			},
			configured: func(s *domain.AppSettings) bool { return s.LLM.IsConfigured() },
		},
	}
}

// numericOptions lists choices in ascending order, adding current when it
// is not one of them.
func numericOptions(choices []int, current int, unit string) []option {
	values := append([]int(nil), choices...)
	found := false
	for _, c := range values {
		if c == current {
			found = true
			break
		}
	}
	if !found && current > 0 {
		values = append(values, current)
		sort.Ints(values)
	}

	opts := make([]option, len(values))
	for i, n := range values {
		opts[i] = option{value: strconv.Itoa(n), label: fmt.Sprintf("%d %s", n, unit)}
	}
	return opts
}

func providerOptions(providers []domain.AIProvider, models map[domain.AIProvider]string) []option {
	opts := make([]option, len(providers))
	for i, p := range providers {
		opts[i] = option{
			value:    string(p),
			label:    p.Description(),
			needsKey: p.RequiresAPIKey(),
		}
		if model, ok := models[p]; ok {
			opts[i].detail = "Model: " + model
		}
	}
	return opts
}

func providerSummary(p domain.AIProvider, model string) string {
	if p == "" {
		return "Not set"
	}
	return fmt.Sprintf("%s (%s)", p.Description(), model)
}

// View is the settings view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService
	fields          []field

	settings *domain.AppSettings
	err      error

	// editing is the index of the open picker, or overview.
	editing int
	// cursor is the row under the selection, in the overview or the picker.
	cursor     int
	keyFocused bool
	keyInput   textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	keyInput := textinput.New()
	keyInput.Placeholder = "Enter API key (leave empty to keep the stored one)"
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		fields:          defaultFields(),
		editing:         overview,
		keyInput:        keyInput,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.settings = msg.Settings
			v.err = nil
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.editing == overview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.closePicker()
		return v, nil
	}

	if v.settings == nil {
		return v, nil
	}
	if v.editing == overview {
		return v.handleOverviewKeys(msg)
	}
	if v.keyFocused {
		return v.handleKeyInput(msg)
	}
	return v.handlePickerKeys(msg)
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.fields)-1 {
			v.cursor++
		}
	case "enter":
		v.openPicker(v.cursor)
	}
	return v, nil
}

func (v *View) handlePickerKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	opts := v.fields[v.editing].options(v.settings)

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(opts)-1 {
			v.cursor++
		}
	case "tab":
		if opts[v.cursor].needsKey {
			v.keyFocused = true
			return v, v.keyInput.Focus()
		}
	case "enter":
		if opts[v.cursor].needsKey {
			v.keyFocused = true
			return v, v.keyInput.Focus()
		}
		return v, v.save(v.fields[v.editing], opts[v.cursor], "")
	}
	return v, nil
}

func (v *View) handleKeyInput(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		v.keyFocused = false
		v.keyInput.Blur()
		return v, nil
	case "enter":
		opts := v.fields[v.editing].options(v.settings)
		return v, v.save(v.fields[v.editing], opts[v.cursor], v.keyInput.Value())
	}

	var cmd tea.Cmd
	v.keyInput, cmd = v.keyInput.Update(msg)
	return v, cmd
}

// openPicker opens field i with the cursor on its current value.
func (v *View) openPicker(i int) {
	f := v.fields[i]
	v.editing = i
	v.cursor = 0
	current := f.current(v.settings)
	for j, o := range f.options(v.settings) {
		if o.value == current {
			v.cursor = j
			break
		}
	}
}

// closePicker returns to the overview with the cursor on the edited field.
func (v *View) closePicker() {
	if v.editing != overview {
		v.cursor = v.editing
	}
	v.editing = overview
	v.keyFocused = false
	v.keyInput.SetValue("")
	v.keyInput.Blur()
}

// save stores the API key first, when given, so a provider switch
// validates against it. Switching provider also selects its default model.
func (v *View) save(f field, o option, apiKey string) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		if apiKey != "" {
			if err := v.settingsService.SetAPIKey(domain.AIProvider(o.value), apiKey); err != nil {
				return messages.SettingsSaved{Err: err}
			}
		}
		err := v.settingsService.Set(f.key, o.value)
		if err == nil {
			v.closePicker()
		}
		return messages.SettingsSaved{Err: err}
	}
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	if v.editing == overview {
		b.WriteString(v.renderOverview())
	} else {
		b.WriteString(v.renderPicker())
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder

	for i, f := range v.fields {
		line := fmt.Sprintf("%s%s: %s", indicator(i == v.cursor), f.label, f.summary(v.settings))
		if f.configured != nil {
			if f.configured(v.settings) {
				line += " " + v.styles.Success.Render("[configured]")
			} else {
				line += " " + v.styles.Warning.Render("[needs API key]")
			}
		}
		b.WriteString(v.row(line, i == v.cursor))
	}

	c := v.settings.Chunking
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Storage: %s  Plain chunker window: %d/%d",
		v.settings.Storage.Backend, c.ChunkSize, c.Overlap)))
	b.WriteString("\n\n")

	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderPicker() string {
	var b strings.Builder

	f := v.fields[v.editing]
	opts := f.options(v.settings)
	current := f.current(v.settings)

	b.WriteString(v.styles.Subtitle.Render("Select " + strings.ToLower(f.label)))
	b.WriteString("\n\n")

	for i, o := range opts {
		selected := i == v.cursor && !v.keyFocused
		line := indicator(selected) + o.label
		if o.value == current {
			line += v.styles.Success.Render(" (current)")
		}
		b.WriteString(v.row(line, selected))
		if o.detail != "" {
			b.WriteString(v.styles.Muted.Render("    " + o.detail))
			b.WriteString("\n")
		}
	}

	if opts[v.cursor].needsKey {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(v.keyInput.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) row(line string, selected bool) string {
	if selected {
		return v.styles.Selected.Render(line) + "\n"
	}
	return v.styles.Normal.Render(line) + "\n"
}

func indicator(selected bool) string {
	if selected {
		return "> "
	}
	return "  "
}

func (v *View) renderHelp() string {
	switch {
	case v.editing == overview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case v.keyFocused:
		return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] cancel")
	case v.fields[v.editing].configured != nil:
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] cancel")
	default:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] cancel")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Editing returns the settings key of the open picker, or "" on the overview.
func (v *View) Editing() string {
	if v.editing == overview {
		return ""
	}
	return v.fields[v.editing].key
}

// Err returns the last load or save error.
func (v *View) Err() error {
	return v.err
}

// Reset returns to the overview and clears any typed API key.
func (v *View) Reset() {
	v.closePicker()
	v.cursor = 0
	v.err = nil
}
