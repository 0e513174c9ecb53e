package ui

import "github.com/charmbracelet/lipgloss"

// Lipgloss styles for the result pager.
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	severityLabelStyle = lipgloss.NewStyle().Faint(true)

	severityValueStyle = lipgloss.NewStyle().Bold(true)

	footerStyle = lipgloss.NewStyle().
			Faint(true).
			MarginTop(1)
)
