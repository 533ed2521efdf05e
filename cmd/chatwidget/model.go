package main

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"quickshop-support/internal/config"
	"quickshop-support/internal/models"
	"quickshop-support/internal/widget"
)

const (
	headerText = "QuickShop Support  (Enter send · Ctrl+N new chat · Esc quit)"
	greeting   = "Hi! Ask us about shipping, returns, order tracking or payments."
)

type resumedMsg struct{ err error }

type sentMsg struct{ err error }

type liveStartedMsg struct {
	sessionID string
	events    <-chan models.TurnEvent
	cancel    context.CancelFunc
}

type liveEventMsg struct {
	sessionID string
	event     models.TurnEvent
}

type liveClosedMsg struct{ sessionID string }

type model struct {
	session  *widget.Session
	cfg      *config.WidgetConfig
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	ready      bool
	width      int
	notice     string
	liveID     string
	liveEvents <-chan models.TurnEvent
	liveCancel context.CancelFunc
}

func newModel(session *widget.Session, cfg *config.WidgetConfig) model {
	ti := textinput.New()
	ti.Placeholder = "Type your question..."
	ti.Focus()
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return model{
		session:  session,
		cfg:      cfg,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		renderer: renderer,
		width:    80,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.resume())
}

func (m model) resume() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
		defer cancel()
		_, err := m.session.Resume(ctx)
		return resumedMsg{err: err}
	}
}

func (m model) commit(p *widget.PendingTurn) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
		defer cancel()
		return sentMsg{err: m.session.Commit(ctx, p)}
	}
}

// listen subscribes to live updates for the current conversation. The server
// only exposes them when Redis is configured, so failures are ignored.
func (m model) listen() tea.Cmd {
	sessionID := m.session.View().SessionID
	if sessionID == "" || sessionID == m.liveID {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := widget.Listen(ctx, m.cfg.APIURL, sessionID)
		if err != nil {
			cancel()
			return nil
		}
		return liveStartedMsg{sessionID: sessionID, events: events, cancel: cancel}
	}
}

func waitForEvent(sessionID string, events <-chan models.TurnEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return liveClosedMsg{sessionID: sessionID}
		}
		return liveEventMsg{sessionID: sessionID, event: event}
	}
}

func (m *model) stopListening() {
	if m.liveCancel != nil {
		m.liveCancel()
	}
	m.liveCancel = nil
	m.liveEvents = nil
	m.liveID = ""
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 5
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.stopListening()
			return m, tea.Quit
		case tea.KeyCtrlN:
			m.stopListening()
			m.notice = ""
			if err := m.session.NewChat(); err != nil {
				m.notice = "Could not reset the saved chat: " + err.Error()
			}
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			p, err := m.session.Stage(m.input.Value())
			if errors.Is(err, widget.ErrEmptyMessage) || errors.Is(err, widget.ErrBusy) {
				return m, nil
			}
			m.input.Reset()
			m.refresh()
			return m, m.commit(p)
		}

	case resumedMsg, sentMsg:
		m.refresh()
		cmds = append(cmds, m.listen())

	case liveStartedMsg:
		m.stopListening()
		m.liveID = msg.sessionID
		m.liveEvents = msg.events
		m.liveCancel = msg.cancel
		cmds = append(cmds, waitForEvent(msg.sessionID, msg.events))

	case liveEventMsg:
		m.session.AppendRemote(msg.event)
		m.refresh()
		if msg.sessionID == m.liveID {
			cmds = append(cmds, waitForEvent(m.liveID, m.liveEvents))
		}

	case liveClosedMsg:
		if msg.sessionID == m.liveID {
			m.stopListening()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return "Connecting to QuickShop support..."
	}

	var b strings.Builder
	b.WriteString(headerText)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	v := m.session.View()
	switch {
	case v.Busy:
		b.WriteString(m.spinner.View() + " Agent is typing...")
	case v.Err != "":
		b.WriteString("! " + v.Err)
	case m.notice != "":
		b.WriteString("! " + m.notice)
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m model) renderTranscript() string {
	v := m.session.View()
	if len(v.Entries) == 0 {
		return greeting
	}

	var b strings.Builder
	for _, e := range v.Entries {
		switch e.Sender {
		case models.SenderUser:
			b.WriteString("You")
			if e.Pending {
				b.WriteString(" (sending)")
			}
			b.WriteString(": ")
			b.WriteString(e.Text)
			b.WriteString("\n\n")
		default:
			b.WriteString("QuickShop:\n")
			b.WriteString(m.renderMarkdown(e.Text))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
