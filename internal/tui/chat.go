package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/relay/internal/client"
	"github.com/ShayCichocki/relay/internal/protocol"
)

// streamEventMsg delivers one orchestrator event to the model.
type streamEventMsg struct {
	ev protocol.Event
}

// streamDoneMsg signals the end of a turn's stream.
type streamDoneMsg struct {
	err error
}

// Chat is the interactive chat model.
type Chat struct {
	client  *client.Client
	baseURL string

	input    *InputField
	viewport viewport.Model
	entries  []entry

	// contextID threads the whole session; pendingTaskID is retained only
	// while a turn is paused on input-required so the reply resumes it.
	contextID     string
	pendingTaskID string

	events <-chan protocol.Event
	errs   <-chan error
	busy   bool

	width    int
	height   int
	ready    bool
	quitting bool
}

// NewChat creates the chat model targeting the orchestrator at baseURL.
func NewChat(c *client.Client, baseURL string) *Chat {
	return &Chat{
		client:    c,
		baseURL:   baseURL,
		input:     NewInputField(),
		contextID: protocol.NewID(),
	}
}

// Init implements tea.Model.
func (m *Chat) Init() tea.Cmd {
	return m.input.Focus()
}

// Update implements tea.Model.
func (m *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.input.SetWidth(msg.Width)
		m.refreshTranscript()

	case MessageSubmittedMsg:
		if m.busy {
			return m, nil
		}
		m.entries = append(m.entries, entry{kind: entryUser, text: msg.Text})
		m.entries = append(m.entries, entry{kind: entryProgress, text: "thinking..."})
		m.refreshTranscript()
		return m, m.startTurn(msg.Text)

	case streamEventMsg:
		m.applyEvent(msg.ev)
		m.refreshTranscript()
		return m, m.waitForEvent()

	case streamDoneMsg:
		m.busy = false
		m.dropProgress()
		if msg.err != nil {
			m.entries = append(m.entries, entry{kind: entryError, text: fmt.Sprintf("stream error: %v", msg.err)})
		}
		m.refreshTranscript()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// startTurn opens the stream for one user message.
func (m *Chat) startTurn(text string) tea.Cmd {
	out := protocol.NewUserMessage(text)
	out.ContextID = m.contextID
	// Resume the paused task when one is waiting for this reply.
	out.TaskID = m.pendingTaskID
	m.pendingTaskID = ""
	m.busy = true

	events, errs := m.client.Stream(context.Background(), m.baseURL, protocol.MessageSendParams{
		Message: out,
		Configuration: &protocol.SendConfiguration{
			AcceptedOutputModes: []string{"text"},
			Blocking:            false,
		},
	})
	m.events = events
	m.errs = errs
	return m.waitForEvent()
}

func (m *Chat) waitForEvent() tea.Cmd {
	events, errs := m.events, m.errs
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamDoneMsg{err: <-errs}
		}
		return streamEventMsg{ev: ev}
	}
}

// applyEvent folds one orchestrator event into the transcript.
func (m *Chat) applyEvent(ev protocol.Event) {
	switch e := ev.(type) {
	case *protocol.StatusUpdateEvent:
		text := ""
		if e.Status.Message != nil {
			text = e.Status.Message.Text()
		}

		switch {
		case e.Final:
			m.dropProgress()
			en := entry{kind: entryAgent, text: text}
			if e.Status.Message != nil {
				en.intentPath = e.Status.Message.IntentPath
				en.citations = e.Status.Message.Citations
			}
			m.entries = append(m.entries, en)
			if e.Status.State == protocol.TaskStateInputRequired {
				m.pendingTaskID = e.TaskID
			}
		case text != "":
			m.setProgress(text)
		}

	case *protocol.ArtifactUpdateEvent:
		name := e.Artifact.Name
		if name == "" {
			name = e.Artifact.ArtifactID
		}
		m.entries = append(m.entries, entry{
			kind: entryProgress,
			text: fmt.Sprintf("received artifact %s", name),
		})
	}
}

// setProgress replaces the trailing progress line, or appends one.
func (m *Chat) setProgress(text string) {
	if n := len(m.entries); n > 0 && m.entries[n-1].kind == entryProgress {
		m.entries[n-1].text = text
		return
	}
	m.entries = append(m.entries, entry{kind: entryProgress, text: text})
}

// dropProgress removes a trailing progress line.
func (m *Chat) dropProgress() {
	if n := len(m.entries); n > 0 && m.entries[n-1].kind == entryProgress {
		m.entries = m.entries[:n-1]
	}
}

func (m *Chat) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderTranscript(m.entries, m.viewport.Width))
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m *Chat) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.input.View())
}

// Run starts the chat program and blocks until it exits.
func Run(c *client.Client, baseURL string) error {
	p := tea.NewProgram(NewChat(c, baseURL), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
