// Package agentctl is the interactive terminal client: a bubbletea REPL
// driving the high-level client runtime directly against a local agent
// subprocess, with no HTTP hop to the gateway.
package agentctl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-wordwrap"

	"github.com/agentrelay/agentrelay/internal/client"
	"github.com/agentrelay/agentrelay/internal/protocol"
)

var (
	styleUser      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleAssistant = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	styleStatus    = lipgloss.NewStyle().Faint(true)
	styleError     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleBorder    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// turnEvent is fed onto streamCh from the goroutine draining the agent's
// message stream, and re-entered into Update as a tea.Msg.
type turnEvent struct {
	delta string
	done  bool
	err   error
}

type model struct {
	cl    *client.Client
	model string

	history  []string // rendered transcript, one entry per user message, assistant reply or error
	viewport viewport.Model
	input    textarea.Model

	streaming    bool
	streamBuf    strings.Builder
	streamCh     chan turnEvent
	cancelTurn   context.CancelFunc
	markdown     *glamour.TermRenderer
	statusLine   string
	width        int
	height       int
}

func newModel(cl *client.Client, modelName string) *model {
	ta := textarea.New()
	ta.Placeholder = "Type a message, /quit to exit, /clear to reset..."
	ta.Focus()
	ta.ShowLineNumbers = false
	ta.SetHeight(2)

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(76))

	return &model{
		cl:       cl,
		model:    modelName,
		viewport: vp,
		input:    ta,
		markdown: renderer,
	}
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = typed.Width, typed.Height
		m.input.SetWidth(typed.Width - 4)
		m.viewport.Width = typed.Width - 4
		m.viewport.Height = typed.Height - 6
		return m, nil

	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c":
			if m.cancelTurn != nil {
				m.cancelTurn()
			}
			return m, tea.Quit
		case "enter":
			if !typed.Alt {
				return m.submit()
			}
		}

	case turnEvent:
		return m.applyTurnEvent(typed)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.streaming {
		return m, nil
	}
	m.input.Reset()

	switch text {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.history = nil
		m.refreshViewport()
		return m, nil
	}

	m.history = append(m.history, styleUser.Render("you")+"\n"+text)
	m.refreshViewport()

	if err := m.cl.SendUserMessage(text, ""); err != nil {
		m.history = append(m.history, styleError.Render("error: "+err.Error()))
		m.refreshViewport()
		return m, nil
	}

	m.streaming = true
	m.streamBuf.Reset()
	m.statusLine = "thinking..."
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	m.cancelTurn = cancel
	m.streamCh = make(chan turnEvent, 64)

	go m.drainTurn(ctx)

	return m, m.waitForTurnEvent()
}

func (m *model) drainTurn(ctx context.Context) {
	defer close(m.streamCh)
	msgs, err := m.cl.ReceiveMessages()
	if err != nil {
		m.streamCh <- turnEvent{err: err}
		return
	}
	for {
		select {
		case <-ctx.Done():
			m.streamCh <- turnEvent{err: ctx.Err()}
			return
		case env, ok := <-msgs:
			if !ok {
				m.streamCh <- turnEvent{err: fmt.Errorf("stream ended unexpectedly")}
				return
			}
			if env.Type == protocol.TypeAssistant && env.Message != nil {
				for _, block := range env.Message.Content {
					if block.Type == protocol.BlockText && block.Text != "" {
						m.streamCh <- turnEvent{delta: block.Text}
					}
				}
			}
			if env.Type == protocol.TypeResult {
				m.streamCh <- turnEvent{done: true}
				return
			}
		}
	}
}

func (m *model) waitForTurnEvent() tea.Cmd {
	ch := m.streamCh
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return turnEvent{done: true}
		}
		return ev
	}
}

func (m *model) applyTurnEvent(ev turnEvent) (tea.Model, tea.Cmd) {
	if ev.err != nil {
		m.streaming = false
		m.statusLine = ""
		m.history = append(m.history, styleError.Render("error: "+ev.err.Error()))
		m.refreshViewport()
		return m, nil
	}
	if ev.delta != "" {
		m.streamBuf.WriteString(ev.delta)
	}
	if ev.done {
		m.streaming = false
		m.statusLine = ""
		reply := m.streamBuf.String()
		m.history = append(m.history, styleAssistant.Render("assistant")+"\n"+m.renderMarkdown(reply))
		m.refreshViewport()
		return m, nil
	}
	return m, m.waitForTurnEvent()
}

func (m *model) renderMarkdown(text string) string {
	if m.markdown == nil {
		return wordwrap.WrapString(text, 76)
	}
	rendered, err := m.markdown.Render(text)
	if err != nil {
		return wordwrap.WrapString(text, 76)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.history, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *model) View() string {
	status := m.statusLine
	if m.streaming && status == "" {
		status = "thinking..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styleBorder.Render(m.viewport.View()),
		styleStatus.Render(status),
		styleBorder.Render(m.input.View()),
	)
}
