package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wsecho/internal/version"
)

// AppName is shown in the header of every screen.
const AppName = "WSECHO CLIENT"

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	AccentColor    = lipgloss.Color("#FF8B94") // Pink
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Chat transcript lines
	SentStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	ReceivedStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// RenderContainer wraps a screen with the application header and a help
// footer. A zero width or height renders without a frame.
func RenderContainer(title, content, footer string, width, height int) string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Foreground(TextColor).Bold(true).Render(AppName+" "+version.Version),
		"  ",
		lipgloss.NewStyle().Foreground(SubtleColor).Render(title),
	)
	footer = lipgloss.NewStyle().Foreground(SubtleColor).Render(footer)

	if width == 0 || height == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
	}

	section := func(b lipgloss.Border) lipgloss.Style {
		return lipgloss.NewStyle().
			BorderStyle(b).
			BorderForeground(BorderColor).
			Width(width-4).
			Padding(0, 1)
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		section(lipgloss.Border{Bottom: "─"}).Render(header),
		lipgloss.NewStyle().Width(width-4).Render(content),
		section(lipgloss.Border{Top: "─"}).Render(footer),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		Render(inner)
}
