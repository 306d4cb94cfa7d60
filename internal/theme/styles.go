package theme

import "github.com/charmbracelet/lipgloss"

// Main UI styles
var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(1, 0)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(1, 0)
)

// Connection state segment styles
var (
	ConnectedStyle = lipgloss.NewStyle().
			Foreground(ColorConnected)

	ConnectingStyle = lipgloss.NewStyle().
			Foreground(ColorConnecting)

	DegradedStyle = lipgloss.NewStyle().
			Foreground(ColorDegraded)

	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ColorDisconnected)
)

// Response pane styles
var (
	ListTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorTableHead)

	TableCellStyle = lipgloss.NewStyle().
			Foreground(ColorNormal).
			Padding(0, 1)
)
