// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Theme is the palette. Each colour has a light and a dark terminal
// variant; lipgloss picks one from the detected background.
type Theme struct {
	Primary    lipgloss.AdaptiveColor
	Secondary  lipgloss.AdaptiveColor // document type badges
	Foreground lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Success    lipgloss.AdaptiveColor
	Warning    lipgloss.AdaptiveColor
	Error      lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
	Bar        lipgloss.AdaptiveColor // status bar background
	Article    lipgloss.AdaptiveColor // "Artigo 5.º" labels
}

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// DefaultTheme is blue and gold, the colours of the Diário da República.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    adaptive("#1F4E8C", "#2F6FB5"),
		Secondary:  adaptive("#8A6D0B", "#C9A227"),
		Foreground: adaptive("#1E2127", "#E4E6EB"),
		Muted:      adaptive("#6B7280", "#7A8194"),
		Success:    adaptive("#2E7D32", "#7BC47F"),
		Warning:    adaptive("#9A6700", "#E5C07B"),
		Error:      adaptive("#B3261E", "#E06C75"),
		Border:     adaptive("#C4C8D0", "#3E4451"),
		Bar:        adaptive("#E8EAEE", "#21252B"),
		Article:    adaptive("#00796B", "#56B6C2"),
	}
}

// Styles are the rendered styles every view shares.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style
	Selected lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	Article lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles builds the styles for theme, the default theme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	rounded := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)

	return &Styles{
		theme: theme,

		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Help:     fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Primary).Bold(true),

		Error:   fg(theme.Error),
		Success: fg(theme.Success),
		Warning: fg(theme.Warning),

		InputField: rounded.Padding(0, 1),
		StatusBar:  fg(theme.Muted).Background(theme.Bar).Padding(0, 1),
		Border:     rounded,

		Article: fg(theme.Article),
		Badge:   fg(theme.Secondary).Bold(true),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Kind renders a chunk kind, highlighting article chunks.
func (s *Styles) Kind(kind domain.ChunkKind) string {
	if kind == domain.ChunkKindArticles {
		return s.Article.Render(string(kind))
	}
	return s.Muted.Render(string(kind))
}

// DocumentType renders a type label as a badge.
func (s *Styles) DocumentType(t domain.DocumentType) string {
	return s.Badge.Render(t.Label())
}
