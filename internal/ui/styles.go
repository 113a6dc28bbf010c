package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - borders, addresses
	SuccessColor = lipgloss.Color("#43BF6D") // Green - server started
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - shutdown
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	// StartedStyle renders the startup line
	StartedStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// ShutdownStyle renders the interrupt line
	ShutdownStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// ErrorTitleStyle is for error result titles
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// SuccessTitleStyle is for success result titles
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// KeyStyle is for detail keys
	KeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(14)

	// ValueStyle is for detail values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// MutedStyle is for hints
	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// Result markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
