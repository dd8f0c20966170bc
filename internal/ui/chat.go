package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/klemjul/talkai/internal/chat"
	"github.com/klemjul/talkai/internal/format"
	"github.com/klemjul/talkai/internal/llm"
	"github.com/klemjul/talkai/internal/speech"
)

type ChatTUIModel struct {
	textInput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	conv      *chat.Conversation
	title     string
	lang      string
	status    string
	listening bool

	// pending is the cumulative reply of the in-flight request.
	pending string
	stream  <-chan llm.LLMStreamEvent
	cancel  context.CancelFunc

	ctx        context.Context
	timeout    time.Duration
	client     llm.LLMClient
	speaker    speech.Speaker
	recognizer speech.Recognizer

	copyToClipboard func(string) error
}

const (
	CHAT_INPUT_PLACEHOLDER = "Type a message..."
	CHAT_WAITING_RESPONSE  = "Waiting for response..."
	CHAT_TYPING_INDICATOR  = "..."
	CHAT_LISTENING         = "🎙 Listening..."
	CHAT_UNAVAILABLE       = "Chat is unavailable: %v"
	CHAT_HELP              = "enter send • ctrl+r dictate • ctrl+y copy reply • esc quit"
	CHAT_HELP_NO_MIC       = "enter send • ctrl+y copy reply • esc quit • voice input unavailable"
	CHAT_COPIED            = "Reply copied to clipboard."
)

var (
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	botStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)
	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true)
)

type InitialModelOptions struct {
	Title    string
	Greeting string
	Lang     string
	// Messages are sent ahead of the conversation, usually a hidden system prompt.
	Messages []llm.Message

	Context context.Context
	Timeout time.Duration
	Client  llm.LLMClient
	// InitErr replaces the greeting with an explanation and disables input.
	InitErr error

	Speaker    speech.Speaker
	Recognizer speech.Recognizer
}

type streamEventMsg struct {
	event llm.LLMStreamEvent
}

type streamClosedMsg struct{}

type recognitionMsg struct {
	transcript string
	err        error
}

func InitialModel(opts InitialModelOptions) ChatTUIModel {
	ti := textinput.New()
	ti.Placeholder = CHAT_INPUT_PLACEHOLDER
	ti.Focus()

	var conv *chat.Conversation
	switch {
	case opts.InitErr != nil:
		conv = chat.NewUnavailable(fmt.Sprintf(CHAT_UNAVAILABLE, opts.InitErr))
	case opts.Client == nil:
		conv = chat.NewUnavailable(fmt.Sprintf(CHAT_UNAVAILABLE, "no client configured"))
	default:
		conv = chat.New(opts.Greeting, opts.Messages...)
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var speaker speech.Speaker = speech.NopSpeaker{}
	if opts.Speaker != nil {
		speaker = opts.Speaker
	}

	return ChatTUIModel{
		textInput:       ti,
		viewport:        viewport.New(0, 0),
		spinner:         spinner.New(spinner.WithSpinner(spinner.Dot)),
		conv:            conv,
		title:           opts.Title,
		lang:            opts.Lang,
		ctx:             ctx,
		timeout:         opts.Timeout,
		client:          opts.Client,
		speaker:         speaker,
		recognizer:      opts.Recognizer,
		copyToClipboard: clipboard.WriteAll,
	}
}

func (m ChatTUIModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.EnableMouseCellMotion,
	)
}

func (m ChatTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		titleLines := 1
		if msg.Width > 0 {
			titleLines = (len(m.headerText()) / msg.Width) + 1
		}
		m.viewport = viewport.New(msg.Width, msg.Height-(4+titleLines))
		m.updateViewport()

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.viewport.ScrollUp(1)
			case tea.MouseButtonWheelDown:
				m.viewport.ScrollDown(1)
			}
		}

	case spinner.TickMsg:
		if m.conv.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case streamEventMsg:
		cmd = m.handleStreamEvent(msg.event)
		m.updateViewport()

	case streamClosedMsg:
		if m.conv.Busy() {
			cmd = m.finishResponse(m.pending)
			m.updateViewport()
		}

	case recognitionMsg:
		m.listening = false
		if msg.err != nil {
			log.Printf("ui: dictation ended: %v", msg.err)
		} else {
			m.textInput.SetValue(msg.transcript)
			m.textInput.CursorEnd()
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.speaker.Stop()
			m.finishRequest()
			cmd = tea.Quit
		case tea.KeyEnter:
			if m.conv.Submit(m.textInput.Value()) {
				m.textInput.SetValue("")
				m.status = ""
				m.pending = ""
				m.stream = m.startStream()
				m.updateViewport()

				cmd = tea.Batch(waitForStreamEvent(m.stream), m.spinner.Tick)
			}
		case tea.KeyCtrlR:
			if m.recognizer != nil && !m.listening {
				m.listening = true
				cmd = m.listen()
			}
		case tea.KeyCtrlY:
			if reply, ok := m.conv.LastReply(); ok {
				if err := m.copyToClipboard(reply); err != nil {
					log.Printf("ui: copy to clipboard: %v", err)
					m.status = fmt.Sprintf("Copy failed: %v", err)
				} else {
					m.status = CHAT_COPIED
				}
			}
		}
	}

	m.textInput, _ = m.textInput.Update(msg)

	if m.conv.State() == chat.Idle {
		m.textInput.Focus()
	} else {
		m.textInput.Blur()
	}

	return m, cmd
}

func (m *ChatTUIModel) handleStreamEvent(event llm.LLMStreamEvent) tea.Cmd {
	if !m.conv.Busy() {
		return nil
	}

	switch event.Type {
	case llm.LLMStreamEventTypeMessage:
		m.pending += event.Content
		m.conv.ApplyDelta(m.pending)
		return waitForStreamEvent(m.stream)
	case llm.LLMStreamEventTypeComplete:
		full := m.pending
		if full == "" && event.Content != "" {
			full = event.Content
			m.conv.ApplyDelta(full)
		}
		return m.finishResponse(full)
	case llm.LLMStreamEventTypeError:
		failure := chat.FailureText(event.Content)
		log.Printf("ui: request failed: %s", event.Content)
		m.conv.Fail(failure)
		m.finishRequest()
		return m.speak(failure)
	default:
		return waitForStreamEvent(m.stream)
	}
}

func (m *ChatTUIModel) finishResponse(full string) tea.Cmd {
	m.conv.Complete()
	m.finishRequest()
	return m.speak(full)
}

func (m *ChatTUIModel) startStream() <-chan llm.LLMStreamEvent {
	var ctx context.Context
	if m.timeout > 0 {
		ctx, m.cancel = context.WithTimeout(m.ctx, m.timeout)
	} else {
		ctx, m.cancel = context.WithCancel(m.ctx)
	}
	return m.client.Stream(ctx, m.conv.History())
}

func (m *ChatTUIModel) finishRequest() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stream = nil
	m.pending = ""
}

func waitForStreamEvent(stream <-chan llm.LLMStreamEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-stream
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event: event}
	}
}

func (m ChatTUIModel) speak(text string) tea.Cmd {
	speaker, lang := m.speaker, m.lang
	return func() tea.Msg {
		speaker.Speak(text, lang)
		return nil
	}
}

func (m ChatTUIModel) listen() tea.Cmd {
	recognizer, ctx, lang := m.recognizer, m.ctx, m.lang
	return func() tea.Msg {
		transcript, err := recognizer.Listen(ctx, lang)
		return recognitionMsg{transcript: transcript, err: err}
	}
}

func (m ChatTUIModel) headerText() string {
	tokens := llm.EstimateHistoryTokens(m.conv.History())
	if m.title == "" {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("%s · ~%d tokens", m.title, tokens)
}

func (m *ChatTUIModel) updateViewport() {
	var displayedMessages []string
	messages := m.conv.Messages()
	for i, msg := range messages {
		if msg.Hidden {
			continue
		}
		switch msg.Role {
		case llm.Assistant:
			if msg.Content == "" && m.conv.Busy() && i == len(messages)-1 {
				displayedMessages = append(displayedMessages, botStyle.Render(CHAT_TYPING_INDICATOR))
				continue
			}
			out, err := format.FormatMarkdownWidth(msg.Content, m.viewport.Width)
			if err != nil {
				out = msg.Content
			}
			displayedMessages = append(displayedMessages, botStyle.Render(strings.TrimSpace(out)))
		case llm.User:
			displayedMessages = append(displayedMessages, userStyle.Render(fmt.Sprintf("> %s", msg.Content)))
		}
	}

	content := strings.Join(displayedMessages, "\n\n")
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m ChatTUIModel) View() string {
	input := m.textInput.View()

	if m.conv.Busy() {
		input = fmt.Sprintf("%s %s", m.spinner.View(), CHAT_WAITING_RESPONSE)
	}
	if m.listening {
		input = fmt.Sprintf("%s  %s", input, CHAT_LISTENING)
	}

	help := CHAT_HELP
	if m.recognizer == nil {
		help = CHAT_HELP_NO_MIC
	}
	if m.status != "" {
		help = m.status
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.viewport.Width).Render(m.headerText()),
		m.viewport.View(),
		inputStyle.Width(m.viewport.Width).Render(input),
		helpStyle.Render(help),
	)
}
