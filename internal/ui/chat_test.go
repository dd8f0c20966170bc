package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/klemjul/talkai/internal/chat"
	"github.com/klemjul/talkai/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLLMClient struct {
	mock.Mock
}

func (c *mockLLMClient) Send(ctx context.Context, messages []llm.Message) (*llm.LLMSendResponse, error) {
	args := c.Called(ctx, messages)
	return args.Get(0).(*llm.LLMSendResponse), args.Error(1)
}

func (c *mockLLMClient) Stream(ctx context.Context, messages []llm.Message) <-chan llm.LLMStreamEvent {
	args := c.Called(ctx, messages)
	return args.Get(0).(<-chan llm.LLMStreamEvent)
}

type mockSpeaker struct {
	mock.Mock
}

func (s *mockSpeaker) Speak(text string, lang string) {
	s.Called(text, lang)
}

func (s *mockSpeaker) Stop() {
	s.Called()
}

type mockRecognizer struct {
	mock.Mock
}

func (r *mockRecognizer) Listen(ctx context.Context, lang string) (string, error) {
	args := r.Called(ctx, lang)
	return args.String(0), args.Error(1)
}

func eventsChan(events ...llm.LLMStreamEvent) <-chan llm.LLMStreamEvent {
	ch := make(chan llm.LLMStreamEvent, len(events))
	for _, event := range events {
		ch <- event
	}
	close(ch)
	return ch
}

func delta(content string) llm.LLMStreamEvent {
	return llm.LLMStreamEvent{Type: llm.LLMStreamEventTypeMessage, Content: content}
}

func newTestModel(t *testing.T, client llm.LLMClient, speaker *mockSpeaker) ChatTUIModel {
	t.Helper()
	opts := InitialModelOptions{
		Title:    "chat",
		Greeting: "Hi",
		Lang:     "en-US",
		Context:  t.Context(),
		Client:   client,
	}
	if speaker != nil {
		opts.Speaker = speaker
	}
	return InitialModel(opts)
}

func update(t *testing.T, m ChatTUIModel, msg tea.Msg) (ChatTUIModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(ChatTUIModel)
	require.True(t, ok)
	return model, cmd
}

func submit(t *testing.T, m ChatTUIModel, text string) (ChatTUIModel, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// nextEvent reads what the running stream would deliver to Update.
func nextEvent(m ChatTUIModel) tea.Msg {
	return waitForStreamEvent(m.stream)()
}

func messageContents(m ChatTUIModel) []llm.Message {
	var out []llm.Message
	for _, msg := range m.conv.Messages() {
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func TestInitialModel(t *testing.T) {
	m := newTestModel(t, &mockLLMClient{}, nil)

	assert.Equal(t, "chat", m.title)
	assert.Equal(t, chat.Idle, m.conv.State())
	assert.Equal(t, CHAT_INPUT_PLACEHOLDER, m.textInput.Placeholder)
	assert.Equal(t, 0, m.viewport.Height)
	assert.Equal(t, 0, m.viewport.Width)
	assert.Equal(t, []llm.Message{{Role: llm.Assistant, Content: "Hi"}}, messageContents(m))
	assert.NotNil(t, m.speaker)
	assert.Nil(t, m.recognizer)
}

func TestInitialModel_WithInitError(t *testing.T) {
	client := &mockLLMClient{}
	m := InitialModel(InitialModelOptions{
		Greeting: "Hi",
		InitErr:  errors.New("API key is not set"),
		Client:   client,
	})

	assert.Equal(t, chat.Disabled, m.conv.State())
	require.Equal(t, 1, m.conv.Len())
	assert.Equal(t, "Chat is unavailable: API key is not set", m.conv.Messages()[0].Content)

	m, cmd := submit(t, m, "hello")

	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.conv.Len())
	assert.False(t, m.textInput.Focused())
	client.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything)
}

func TestInitialModel_WithoutClient(t *testing.T) {
	m := InitialModel(InitialModelOptions{Greeting: "Hi"})

	assert.Equal(t, chat.Disabled, m.conv.State())
	assert.Contains(t, m.conv.Messages()[0].Content, "no client configured")
}

func TestModelUpdate_WindowSizeMsg(t *testing.T) {
	// header is "chat · ~1 tokens", 17 bytes
	tests := []struct {
		name      string
		screenW   int
		screenH   int
		expectedW int
		expectedH int
	}{
		{
			name:      "title in ui width",
			screenW:   80,
			screenH:   24,
			expectedW: 80,
			expectedH: 19,
		},
		{
			name:      "title exceed ui width",
			screenW:   10,
			screenH:   24,
			expectedW: 10,
			expectedH: 18,
		},
		{
			name:      "title exceed a lot ui width",
			screenW:   5,
			screenH:   24,
			expectedW: 5,
			expectedH: 16,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			initModel := newTestModel(t, &mockLLMClient{}, nil)
			require.Len(t, initModel.headerText(), 17)

			updated, cmd := update(t, initModel, tea.WindowSizeMsg{Width: tc.screenW, Height: tc.screenH})

			assert.Equal(t, tc.expectedH, updated.viewport.Height)
			assert.Equal(t, tc.expectedW, updated.viewport.Width)
			assert.Nil(t, cmd, "WindowSizeMsg should not return a command")
		})
	}
}

func TestModelUpdate_MouseMsg(t *testing.T) {
	initContent := strings.Repeat("line\n", 20)
	initYOffset := 10
	testCases := []struct {
		name            string
		msg             tea.MouseMsg
		expectedYOffset int
	}{
		{
			name: "wheel up",
			msg: tea.MouseMsg{
				Action: tea.MouseActionPress,
				Button: tea.MouseButtonWheelUp,
			},
			expectedYOffset: 9,
		},
		{
			name: "wheel down",
			msg: tea.MouseMsg{
				Action: tea.MouseActionPress,
				Button: tea.MouseButtonWheelDown,
			},
			expectedYOffset: 11,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			initModel := newTestModel(t, &mockLLMClient{}, nil)
			initModel.viewport.Height = 5
			initModel.viewport.SetContent(initContent)
			initModel.viewport.SetYOffset(initYOffset)

			updated, cmd := update(t, initModel, tc.msg)

			assert.Equal(t, tc.expectedYOffset, updated.viewport.YOffset)
			assert.Nil(t, cmd, "Mouse message should not return a command")
		})
	}
}

func TestModelUpdate_KeyMsg(t *testing.T) {
	testCases := []struct {
		name               string
		key                tea.KeyMsg
		initInputValue     string
		expectQuit         bool
		expectStream       bool
		expectedInputValue string
		expectedLen        int
	}{
		{
			name:        "ctrl+c quits",
			key:         tea.KeyMsg{Type: tea.KeyCtrlC},
			expectQuit:  true,
			expectedLen: 1,
		},
		{
			name:        "esc quits",
			key:         tea.KeyMsg{Type: tea.KeyEsc},
			expectQuit:  true,
			expectedLen: 1,
		},
		{
			name:               "enter with input",
			key:                tea.KeyMsg{Type: tea.KeyEnter},
			initInputValue:     "Hello",
			expectStream:       true,
			expectedInputValue: "",
			expectedLen:        3,
		},
		{
			name:               "enter with empty input",
			key:                tea.KeyMsg{Type: tea.KeyEnter},
			initInputValue:     "",
			expectedInputValue: "",
			expectedLen:        1,
		},
		{
			name:               "enter with whitespace input",
			key:                tea.KeyMsg{Type: tea.KeyEnter},
			initInputValue:     "   ",
			expectedInputValue: "   ",
			expectedLen:        1,
		},
		{
			name:        "unsupported key",
			key:         tea.KeyMsg{Type: tea.KeyHome},
			expectedLen: 1,
		},
		{
			name:               "key rune",
			key:                tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}},
			expectedInputValue: "a",
			expectedLen:        1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockLLMClient{}
			speaker := &mockSpeaker{}
			speaker.On("Stop").Return()
			if tc.expectStream {
				client.On("Stream", mock.Anything, []llm.Message{
					{Role: llm.Assistant, Content: "Hi"},
					{Role: llm.User, Content: tc.initInputValue},
				}).Return(eventsChan())
			}
			initModel := newTestModel(t, client, speaker)
			initModel.textInput.SetValue(tc.initInputValue)

			model, cmd := update(t, initModel, tc.key)

			switch {
			case tc.expectQuit:
				require.NotNil(t, cmd)
				assert.Equal(t, tea.Quit(), cmd())
				speaker.AssertCalled(t, "Stop")
			case tc.expectStream:
				assert.NotNil(t, cmd)
				assert.True(t, model.conv.Busy())
			default:
				assert.Nil(t, cmd)
			}
			assert.Equal(t, tc.expectedInputValue, model.textInput.Value())
			assert.Equal(t, tc.expectedLen, model.conv.Len())
			client.AssertExpectations(t)
		})
	}
}

func TestModelUpdate_EnterWhileAwaitingResponse(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan()).Once()
	m := newTestModel(t, client, nil)

	m, _ = submit(t, m, "first")
	require.True(t, m.conv.Busy())
	m, cmd := submit(t, m, "second")

	assert.Nil(t, cmd)
	assert.Equal(t, 3, m.conv.Len())
	assert.Equal(t, "second", m.textInput.Value())
	assert.False(t, m.textInput.Focused(), "input is blurred while awaiting a response")
	client.AssertNumberOfCalls(t, "Stream", 1)
}

func TestModelUpdate_StreamsReply(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, []llm.Message{
		{Role: llm.Assistant, Content: "Hi"},
		{Role: llm.User, Content: "weather?"},
	}).Return(eventsChan(
		delta("It's "),
		delta("sunny."),
		llm.LLMStreamEvent{Type: llm.LLMStreamEventTypeComplete, Content: "It's sunny."},
	))
	speaker := &mockSpeaker{}
	speaker.On("Speak", "It's sunny.", "en-US").Return()
	m := newTestModel(t, client, speaker)

	m, _ = submit(t, m, "weather?")
	assert.Equal(t, []llm.Message{
		{Role: llm.Assistant, Content: "Hi"},
		{Role: llm.User, Content: "weather?"},
		{Role: llm.Assistant, Content: ""},
	}, messageContents(m))

	m, cmd := update(t, m, nextEvent(m))
	assert.Equal(t, "It's ", messageContents(m)[2].Content)
	assert.NotNil(t, cmd)

	m, _ = update(t, m, nextEvent(m))
	assert.Equal(t, "It's sunny.", messageContents(m)[2].Content)

	m, cmd = update(t, m, nextEvent(m))
	assert.Equal(t, chat.Idle, m.conv.State())
	assert.Equal(t, "It's sunny.", messageContents(m)[2].Content)
	assert.True(t, m.textInput.Focused())
	assert.Nil(t, m.stream)

	require.NotNil(t, cmd)
	cmd()
	speaker.AssertExpectations(t)
}

func TestModelUpdate_CompleteWithoutDeltas(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan(
		llm.LLMStreamEvent{Type: llm.LLMStreamEventTypeComplete, Content: "all at once"},
	))
	m := newTestModel(t, client, nil)

	m, _ = submit(t, m, "hello")
	m, _ = update(t, m, nextEvent(m))

	assert.Equal(t, "all at once", messageContents(m)[2].Content)
	assert.Equal(t, chat.Idle, m.conv.State())
}

func TestModelUpdate_StreamError(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan(
		delta("It's"),
		llm.LLMStreamEvent{Type: llm.LLMStreamEventTypeError, Content: "bad key (HTTP 401)"},
	))
	speaker := &mockSpeaker{}
	speaker.On("Speak", "Failed to generate response: bad key (HTTP 401)", "en-US").Return()
	m := newTestModel(t, client, speaker)

	m, _ = submit(t, m, "weather?")
	m, _ = update(t, m, nextEvent(m))
	m, cmd := update(t, m, nextEvent(m))

	last := messageContents(m)[2]
	assert.Equal(t, llm.Assistant, last.Role)
	assert.Contains(t, last.Content, "bad key")
	assert.Equal(t, chat.Idle, m.conv.State())

	require.NotNil(t, cmd)
	cmd()
	speaker.AssertExpectations(t)
}

func TestModelUpdate_StreamClosedWithoutTerminalEvent(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan(delta("partial")))
	speaker := &mockSpeaker{}
	speaker.On("Speak", "partial", "en-US").Return()
	m := newTestModel(t, client, speaker)

	m, _ = submit(t, m, "hello")
	m, _ = update(t, m, nextEvent(m))
	msg := nextEvent(m)
	assert.Equal(t, streamClosedMsg{}, msg)
	m, cmd := update(t, m, msg)

	assert.Equal(t, chat.Idle, m.conv.State())
	assert.Equal(t, "partial", messageContents(m)[2].Content)
	require.NotNil(t, cmd)
	cmd()
	speaker.AssertExpectations(t)
}

func TestModelUpdate_StaleStreamEventIgnored(t *testing.T) {
	m := newTestModel(t, &mockLLMClient{}, nil)

	m, cmd := update(t, m, streamEventMsg{event: delta("late")})

	assert.Nil(t, cmd)
	assert.Equal(t, []llm.Message{{Role: llm.Assistant, Content: "Hi"}}, messageContents(m))
}

func TestModelUpdate_TimeoutBoundsRequest(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(eventsChan())
	m := InitialModel(InitialModelOptions{
		Greeting: "Hi",
		Context:  t.Context(),
		Timeout:  time.Minute,
		Client:   client,
	})

	m, _ = submit(t, m, "hello")

	assert.NotNil(t, m.cancel)
	client.AssertExpectations(t)

	m, _ = update(t, m, nextEvent(m))
	assert.Nil(t, m.cancel)
}

func TestModelUpdate_Dictation(t *testing.T) {
	recognizer := &mockRecognizer{}
	recognizer.On("Listen", mock.Anything, "en-US").Return("what's the weather?", nil)
	m := newTestModel(t, &mockLLMClient{}, nil)
	m.recognizer = recognizer

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.listening)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), CHAT_LISTENING)

	_, again := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, again, "only one capture at a time")

	m, _ = update(t, m, cmd())

	assert.False(t, m.listening)
	assert.Equal(t, "what's the weather?", m.textInput.Value())
	recognizer.AssertNumberOfCalls(t, "Listen", 1)
}

func TestModelUpdate_DictationError(t *testing.T) {
	m := newTestModel(t, &mockLLMClient{}, nil)
	m.recognizer = &mockRecognizer{}
	m.listening = true
	m.textInput.SetValue("typed")

	m, cmd := update(t, m, recognitionMsg{err: errors.New("no microphone")})

	assert.Nil(t, cmd)
	assert.False(t, m.listening)
	assert.Equal(t, "typed", m.textInput.Value())
}

func TestModelUpdate_DictationUnavailable(t *testing.T) {
	m := newTestModel(t, &mockLLMClient{}, nil)
	m.viewport.Width = 80

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.Nil(t, cmd)
	assert.False(t, m.listening)
	assert.Contains(t, m.View(), "voice input unavailable")
}

func TestModelUpdate_DictationWhileAwaitingResponse(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan())
	recognizer := &mockRecognizer{}
	m := newTestModel(t, client, nil)
	m.recognizer = recognizer

	m, _ = submit(t, m, "hello")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.NotNil(t, cmd)
	assert.True(t, m.listening)
	assert.True(t, m.conv.Busy())
}

func TestModelUpdate_CopyReply(t *testing.T) {
	var copied string
	m := newTestModel(t, &mockLLMClient{}, nil)
	m.copyToClipboard = func(text string) error {
		copied = text
		return nil
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})

	assert.Equal(t, "Hi", copied)
	assert.Equal(t, CHAT_COPIED, m.status)

	m.copyToClipboard = func(string) error { return errors.New("no clipboard") }
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Contains(t, m.status, "no clipboard")
}

func TestUpdateViewport(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan())
	m := InitialModel(InitialModelOptions{
		Greeting: "Hi there!",
		Client:   client,
		Messages: []llm.Message{{Role: llm.System, Content: "Hidden system prompt", Hidden: true}},
	})
	m.viewport.Width = 80
	m.viewport.Height = 20

	m, _ = submit(t, m, "How are you?")
	m.updateViewport()

	content := m.viewport.View()
	assert.Contains(t, content, "> How are you?", "User messages should be prefixed with '>'")
	assert.Contains(t, content, "there")
	assert.Contains(t, content, CHAT_TYPING_INDICATOR)
	assert.NotContains(t, content, "Hidden system prompt", "Hidden messages should not appear in viewport")
}

func TestModelView_Waiting(t *testing.T) {
	client := &mockLLMClient{}
	client.On("Stream", mock.Anything, mock.Anything).Return(eventsChan())
	m := newTestModel(t, client, nil)
	m.viewport.Width = 40
	m.viewport.Height = 10

	m, _ = submit(t, m, "hello")
	view := m.View()

	assert.Contains(t, view, CHAT_WAITING_RESPONSE)
	assert.Contains(t, view, "chat")
}

func TestModelView_InputShownWhenIdle(t *testing.T) {
	m := newTestModel(t, &mockLLMClient{}, nil)
	m.viewport.Width = 40
	m.viewport.Height = 10
	m.textInput.SetValue("Hello")

	view := m.View()

	assert.NotContains(t, view, CHAT_WAITING_RESPONSE)
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "chat")
}
