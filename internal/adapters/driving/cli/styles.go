package cli

import "github.com/charmbracelet/lipgloss"

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func heading(s string) string { return headingStyle.Render(s) }

func label(s string) string { return labelStyle.Render(s) }
