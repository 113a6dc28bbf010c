package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value row of a result box.
type Detail struct {
	Key   string
	Value string
}

// Printer writes status output. Styling is applied only when the writer is
// a terminal, so redirected output carries the plain lines.
type Printer struct {
	out    io.Writer
	styled bool
	width  int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:    w,
		styled: IsTerminal(w),
		width:  GetTerminalWidth(),
	}
}

// Styled reports whether output is decorated.
func (p *Printer) Styled() bool {
	return p.styled
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Startup prints the startup line.
func (p *Printer) Startup(secure bool, port int) {
	p.Println(p.render(StartedStyle, StartupLine(secure, port)))
}

// Shutdown prints the interrupt line.
func (p *Printer) Shutdown() {
	p.Println(p.render(ShutdownStyle, ShutdownLine()))
}

// Success prints a titled list of details.
func (p *Printer) Success(title string, details []Detail) {
	p.Println(p.box(SuccessColor, SuccessTitleStyle, SuccessMarker+" "+title, details))
}

// Failure prints a titled error with details.
func (p *Printer) Failure(title string, err error, details []Detail) {
	if err != nil {
		details = append([]Detail{{Key: "Error", Value: err.Error()}}, details...)
	}
	p.Println(p.box(ErrorColor, ErrorTitleStyle, FailureMarker+" "+title, details))
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return style.Render(text)
}

func (p *Printer) box(border lipgloss.Color, titleStyle lipgloss.Style, title string, details []Detail) string {
	if !p.styled {
		lines := []string{title}
		for _, d := range details {
			lines = append(lines, fmt.Sprintf("  %s: %s", d.Key, d.Value))
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{"", titleStyle.Render(title), ""}
	for _, d := range details {
		lines = append(lines, KeyStyle.Render(d.Key+":")+" "+ValueStyle.Render(d.Value))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Width(p.width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}
