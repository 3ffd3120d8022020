package tui

import (
	"github.com/charmbracelet/lipgloss"

	"langfmt/internal/hook"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	blue   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	statusStyles = map[string]lipgloss.Style{
		string(hook.OutcomeConforms): green,
		string(hook.OutcomeFixed):    green,
		string(hook.OutcomeDirty):    yellow,
		string(hook.OutcomeInvalid):  red,
		string(hook.OutcomeError):    red,

		// formatter line
		"ready":     green,
		"acquiring": blue,

		"checking": blue,
		"pending":  lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the style for a file outcome or progress state.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
