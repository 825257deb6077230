// Package ui provides the visual styling for the iso command line tool.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Semantic colors shared by every command's output.
var (
	colorPrimary = lipgloss.Color("#1E88E5")
	colorAccent  = lipgloss.Color("#26A69A")
	colorMuted   = lipgloss.Color("244")
	colorSuccess = lipgloss.Color("#43A047")
	colorError   = lipgloss.Color("#E53935")
	colorWarning = lipgloss.Color("#FFB300")
)

// Styles holds the styled components used across commands.
type Styles struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles builds the style set. With noColor every style renders
// plain text, which also keeps output stable when piped.
func NewStyles(noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{
			Title:   plain,
			Bold:    plain,
			Body:    plain,
			Muted:   plain,
			Success: plain,
			Error:   plain,
			Warning: plain,
			Badge:   plain,
		}
	}
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		Bold:    lipgloss.NewStyle().Bold(true),
		Body:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Success: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		Badge: lipgloss.NewStyle().
			Background(colorAccent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),
	}
}
