// Package tui provides the interactive progress display for long runs.
package tui

import "github.com/charmbracelet/lipgloss"

// Colors for the progress display, matching the output package palette.
var (
	primaryColor = lipgloss.Color("39")
	successColor = lipgloss.Color("42")
	dangerColor  = lipgloss.Color("196")
	mutedColor   = lipgloss.Color("245")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	successTextStyle = lipgloss.NewStyle().
				Foreground(successColor)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	statsValueStyle = lipgloss.NewStyle().
			Bold(true)
)

// truncatePath shortens a path to fit the given width, keeping the tail,
// which is the part users recognize.
func truncatePath(path string, width int) string {
	if width < 4 {
		width = 4
	}
	if len(path) <= width {
		return path
	}
	return "..." + path[len(path)-(width-3):]
}
