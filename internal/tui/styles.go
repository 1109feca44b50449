package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("170") // Purple
	dimColor     = lipgloss.Color("240") // Gray
	successColor = lipgloss.Color("82")  // Green
	errorColor   = lipgloss.Color("196") // Red
	warningColor = lipgloss.Color("214") // Orange

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			MarginTop(1)
)

// StatusStyle picks the style for a history status
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return SuccessStyle
	case "failed":
		return ErrorStyle
	}
	return WarningStyle
}

// FormatSize formats bytes into human readable format
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
