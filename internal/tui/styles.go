package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#7D56F4")
	muted   = lipgloss.Color("#767676")
	warning = lipgloss.Color("#E06C75")
)

type styles struct {
	panel       lipgloss.Style
	panelActive lipgloss.Style
	title       lipgloss.Style
	titleActive lipgloss.Style
	titleHover  lipgloss.Style
	status      lipgloss.Style
	notice      lipgloss.Style
	placeholder lipgloss.Style
}

func defaultStyles() styles {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)
	return styles{
		panel:       panel,
		panelActive: panel.BorderForeground(accent),
		title:       lipgloss.NewStyle().Bold(true).Foreground(muted),
		titleActive: lipgloss.NewStyle().Bold(true).Foreground(accent),
		titleHover:  lipgloss.NewStyle().Bold(true).Underline(true),
		status:      lipgloss.NewStyle().Foreground(muted),
		notice:      lipgloss.NewStyle().Foreground(warning),
		placeholder: lipgloss.NewStyle().Foreground(muted).Italic(true),
	}
}
