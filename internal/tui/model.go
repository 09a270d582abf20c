// Package tui is the terminal chat front-end: a transcript viewport over a
// question prompt, streaming answer fragments as they arrive.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/docqa/internal/domain"
	chatuc "github.com/kailas-cloud/docqa/internal/usecase/chat"
)

// Session is the TUI-facing subset of a chat session.
type Session interface {
	Ask(ctx context.Context, question string) (*chatuc.Answer, error)
	History() []domain.Turn
}

// exitWord ends the loop, matching the documented CLI contract.
const exitWord = "exit"

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type answerStartedMsg struct{ answer *chatuc.Answer }

type fragmentMsg struct{ text string }

type answerDoneMsg struct{}

type answerFailedMsg struct{ err error }

// Model is the Bubble Tea model for the chat loop.
type Model struct {
	ctx      context.Context
	session  Session
	input    textinput.Model
	viewport viewport.Model

	// Plain strings, not builders: Bubble Tea copies the model on every
	// dispatch and strings.Builder forbids writing after a copy.
	transcript string
	current    string

	answer    *chatuc.Answer
	streaming bool
	status    string
	ready     bool
}

// New creates the chat model.
func New(ctx context.Context, session Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter your query (or 'exit' to quit)"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ph := promptStyle.GetFrameSize()
		reserved := 2 + ph + 1 // header + spacer, prompt frame, status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !m.streaming {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if strings.EqualFold(q, exitWord) {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.streaming = true
			m.status = "Thinking..."
			m.transcript += questionStyle.Render("You: "+q) + "\n"
			m.current = ""
			m.refresh()
			return m, m.askCmd(q)
		}

	case answerStartedMsg:
		m.answer = msg.answer
		return m, m.recvCmd()

	case fragmentMsg:
		m.current += msg.text
		m.refresh()
		return m, m.recvCmd()

	case answerDoneMsg:
		m.transcript += m.current + "\n\n"
		m.current = ""
		m.answer = nil
		m.streaming = false
		m.status = "Ready."
		m.refresh()
		return m, nil

	case answerFailedMsg:
		// The turn is discarded; the loop keeps accepting questions.
		m.transcript += errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
		m.current = ""
		m.answer = nil
		m.streaming = false
		m.status = "Ready."
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, the prompt, and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docqa")
	return header + "\n\n" +
		m.viewport.View() + "\n" +
		promptStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

// askCmd opens the retrieve-generate attempt off the UI goroutine.
func (m Model) askCmd(question string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		answer, err := session.Ask(ctx, question)
		if err != nil {
			return answerFailedMsg{err: err}
		}
		return answerStartedMsg{answer: answer}
	}
}

// recvCmd pulls the next fragment; each delivery schedules the next pull.
func (m Model) recvCmd() tea.Cmd {
	answer := m.answer
	return func() tea.Msg {
		frag, err := answer.Recv()
		if errors.Is(err, io.EOF) {
			return answerDoneMsg{}
		}
		if err != nil {
			return answerFailedMsg{err: err}
		}
		return fragmentMsg{text: frag}
	}
}

func (m *Model) refresh() {
	content := m.transcript
	if m.current != "" || m.streaming {
		content += m.current
	}
	if content == "" {
		content = statusStyle.Render("Ask a question about your documents.")
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// Transcript returns the rendered conversation, for the final print on exit.
func (m Model) Transcript() string {
	turns := m.session.History()
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", t.Question, t.Answer)
	}
	return b.String()
}
