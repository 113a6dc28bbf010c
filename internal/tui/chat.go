package tui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wsecho/internal/client"
	"github.com/muurk/wsecho/internal/wshandler"
)

// Session is the connection a ChatModel drives. *client.Client implements it.
type Session interface {
	SendText(text string) error
	Messages() <-chan client.Message
	CloseCode() int
}

// Messages for async operations
type receivedMsg struct{ msg client.Message }
type disconnectedMsg struct{ code int }
type sendResultMsg struct{ err error }

type chatKeyMap struct {
	Send key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Up, k.Down, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Quit}, {k.Up, k.Down}}
}

// ChatModel is an interactive send/receive screen for one connection.
type ChatModel struct {
	URL       string
	Session   Session
	Connected bool
	CloseCode int

	Input    textinput.Model
	Viewport viewport.Model
	Help     help.Model
	Keys     chatKeyMap

	lines  []string
	Width  int
	Height int
}

// NewChatModel creates a chat screen for an open session.
func NewChatModel(url string, session Session) ChatModel {
	input := textinput.New()
	input.Placeholder = "type a message and press enter"
	input.Prompt = "> "
	input.CharLimit = 4096
	input.Width = 60
	input.Focus()

	keys := chatKeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Up: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}

	return ChatModel{
		URL:       url,
		Session:   session,
		Connected: true,
		Input:     input,
		Viewport:  viewport.New(60, 10),
		Help:      help.New(),
		Keys:      keys,
	}
}

// Init implements tea.Model
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForMessage(m.Session))
}

// Update implements tea.Model
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.Keys.Send):
			text := m.Input.Value()
			if text == "" {
				return m, nil
			}
			if !m.Connected {
				m.appendLine(ErrorStyle.Render("not connected"))
				return m, nil
			}
			m.Input.Reset()
			m.appendLine(SentStyle.Render("→ " + text))
			return m, sendText(m.Session, text)

		case key.Matches(msg, m.Keys.Up), key.Matches(msg, m.Keys.Down):
			var cmd tea.Cmd
			m.Viewport, cmd = m.Viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = max(msg.Width-6, 20)
		m.Viewport.Height = max(msg.Height-10, 3)
		m.Input.Width = max(msg.Width-10, 20)
		m.refresh()
		return m, nil

	case receivedMsg:
		m.appendLine(ReceivedStyle.Render("← " + describe(msg.msg)))
		return m, waitForMessage(m.Session)

	case disconnectedMsg:
		m.Connected = false
		m.CloseCode = msg.code
		m.appendLine(NoticeStyle.Render(fmt.Sprintf("connection closed (code %d)", msg.code)))
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.appendLine(ErrorStyle.Render("send failed: " + msg.err.Error()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m ChatModel) View() string {
	status := ReceivedStyle.Render("connected")
	if !m.Connected {
		status = NoticeStyle.Render("disconnected")
	}

	content := strings.Join([]string{
		m.URL + "  " + status,
		"",
		m.Viewport.View(),
		"",
		m.Input.View(),
	}, "\n")

	return RenderContainer("chat", content, m.Help.View(m.Keys), m.Width, m.Height)
}

// Transcript returns the lines shown so far.
func (m ChatModel) Transcript() []string {
	return m.lines
}

func (m *ChatModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.Viewport.SetContent(strings.Join(m.lines, "\n"))
	m.Viewport.GotoBottom()
}

func describe(msg client.Message) string {
	if msg.Type == wshandler.BinaryMessage {
		return fmt.Sprintf("[binary %d bytes] %s", len(msg.Data), hex.EncodeToString(msg.Data))
	}
	return msg.Text()
}

func waitForMessage(s Session) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.Messages()
		if !ok {
			return disconnectedMsg{code: s.CloseCode()}
		}
		return receivedMsg{msg: msg}
	}
}

func sendText(s Session, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{err: s.SendText(text)}
	}
}
