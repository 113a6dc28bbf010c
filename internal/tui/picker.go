package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wsecho/internal/discovery"
)

// ScanFunc finds servers on the local network.
type ScanFunc func(ctx context.Context) ([]*discovery.Service, error)

type scanStartMsg struct{}
type scanCompleteMsg struct {
	services []*discovery.Service
	err      error
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// serviceItem wraps a Service for use with bubbles/list
type serviceItem struct {
	service *discovery.Service
}

func (i serviceItem) FilterValue() string {
	return i.service.Instance + " " + i.service.IP + " " + i.service.Hostname
}

func (i serviceItem) Title() string {
	return i.service.Instance
}

func (i serviceItem) Description() string {
	auth := "open"
	if i.service.AuthRequired {
		auth = "basic auth"
	}
	return fmt.Sprintf("%s • %s", i.service.URL(), auth)
}

// PickerModel scans for servers and lets the user choose one, or type a URL.
type PickerModel struct {
	Scan     ScanFunc
	Scanning bool
	List     list.Model
	Err      error

	ManualMode bool
	URLInput   textinput.Model

	// Selected is the chosen URL once the picker quits, empty if cancelled
	Selected string

	Width         int
	Height        int
	Spinner       spinner.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          pickerKeyMap
	ManualKeys    manualKeyMap
}

// NewPickerModel creates a picker that discovers servers with scan.
func NewPickerModel(scan ScanFunc) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	urlInput := textinput.New()
	urlInput.Placeholder = "ws://localhost:8000/"
	urlInput.CharLimit = 256
	urlInput.Width = 40

	services := list.New([]list.Item{}, list.NewDefaultDelegate(), 60, 14)
	services.Title = "Discovered Servers"
	services.SetShowStatusBar(false)
	services.SetShowHelp(false)
	services.Styles.Title = TitleStyle

	keys := pickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "enter URL"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	manualKeys := manualKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	return PickerModel{
		Scan:       scan,
		List:       services,
		URLInput:   urlInput,
		Spinner:    s,
		Help:       help.New(),
		Keys:       keys,
		ManualKeys: manualKeys,
	}
}

// Init implements tea.Model
func (m PickerModel) Init() tea.Cmd {
	return m.startScan()
}

func (m PickerModel) startScan() tea.Cmd {
	scan := m.Scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			services, err := scan(context.Background())
			return scanCompleteMsg{services: services, err: err}
		},
		m.Spinner.Tick,
	)
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManual(msg)
		}
		if m.List.FilterState() != list.Filtering {
			if next, cmd, handled := m.updateNormal(msg); handled {
				return next, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetWidth(msg.Width - 6)
		m.List.SetHeight(msg.Height - 10)

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.services))
		for i, svc := range msg.services {
			items[i] = serviceItem{service: svc}
		}
		cmd = m.List.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.List, cmd = m.List.Update(msg)
	}
	return m, cmd
}

func (m PickerModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.List.SelectedItem().(serviceItem); ok {
			m.Selected = item.service.URL()
			return m, tea.Quit, true
		}
		return m, nil, true

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil, true
		}
		m.Err = nil
		cmd := tea.Batch(m.List.SetItems(nil), m.startScan())
		return m, cmd, true

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.URLInput.SetValue("")
		cmd := m.URLInput.Focus()
		return m, cmd, true
	}
	return m, nil, false
}

func (m PickerModel) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		if value := strings.TrimSpace(m.URLInput.Value()); value != "" {
			m.Selected = value
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m PickerModel) View() string {
	var content, helpText string

	switch {
	case m.ManualMode:
		content = "\n" + SubtitleStyle.Render("Enter server URL") + "\n\n  URL: " + m.URLInput.View() + "\n"
		helpText = m.Help.View(m.ManualKeys)

	case m.Scanning:
		elapsed := time.Since(m.ScanStartTime).Round(time.Second)
		content = lipgloss.JoinVertical(lipgloss.Left,
			"",
			TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR SERVERS"),
			SubtitleStyle.Render(fmt.Sprintf("Browsing %s on the local network (%s)", discovery.ServiceType, elapsed)),
		)
		helpText = m.Help.View(m.Keys)

	case m.Err != nil:
		content = "\n" + ErrorStyle.Render("✗ Scan failed: "+m.Err.Error()) + "\n"
		helpText = m.Help.View(m.Keys)

	case len(m.List.Items()) == 0:
		content = "\n" + lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No servers found") +
			"\n\n  Start one with --advertise, or press m to enter a URL.\n"
		helpText = m.Help.View(m.Keys)

	default:
		content = m.List.View()
		helpText = m.Help.View(m.Keys)
	}

	return RenderContainer("discover", content, helpText, m.Width, m.Height)
}
