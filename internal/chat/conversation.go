package chat

import (
	"strings"

	"github.com/google/uuid"
	"github.com/klemjul/talkai/internal/llm"
)

type State int

const (
	Idle State = iota
	AwaitingResponse
	// Disabled conversations never accept input; used when the client
	// could not be created.
	Disabled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting response"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

type Message struct {
	ID string
	llm.Message
}

// Conversation is the ordered chat history of one session. Only the last
// message may change, and only while a response is awaited.
type Conversation struct {
	messages []Message
	state    State
}

func newMessage(role llm.MessageRole, content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Message: llm.Message{Role: role, Content: content},
	}
}

// New starts a conversation with the hidden preamble followed by the
// assistant greeting.
func New(greeting string, preamble ...llm.Message) *Conversation {
	c := &Conversation{state: Idle}
	for _, msg := range preamble {
		m := newMessage(msg.Role, msg.Content)
		m.Hidden = msg.Hidden
		c.messages = append(c.messages, m)
	}
	c.messages = append(c.messages, newMessage(llm.Assistant, greeting))
	return c
}

// NewUnavailable starts a conversation that explains why chat is not
// possible and ignores every submission.
func NewUnavailable(reason string) *Conversation {
	return &Conversation{
		messages: []Message{newMessage(llm.Assistant, reason)},
		state:    Disabled,
	}
}

func (c *Conversation) State() State {
	return c.state
}

func (c *Conversation) Busy() bool {
	return c.state == AwaitingResponse
}

func (c *Conversation) Messages() []Message {
	return c.messages
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message. ok is false for an empty conversation.
func (c *Conversation) Last() (msg Message, ok bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastReply returns the content of the latest non-empty assistant message.
func (c *Conversation) LastReply() (string, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		msg := c.messages[i]
		if msg.Role == llm.Assistant && !msg.Hidden && msg.Content != "" {
			return msg.Content, true
		}
	}
	return "", false
}

// Submit appends the user text and an empty assistant placeholder. It
// reports false, changing nothing, for blank text or when not Idle.
func (c *Conversation) Submit(text string) bool {
	if c.state != Idle || strings.TrimSpace(text) == "" {
		return false
	}
	c.messages = append(c.messages,
		newMessage(llm.User, text),
		newMessage(llm.Assistant, ""),
	)
	c.state = AwaitingResponse
	return true
}

// ApplyDelta replaces the placeholder content with the cumulative reply.
func (c *Conversation) ApplyDelta(cumulative string) bool {
	if c.state != AwaitingResponse {
		return false
	}
	c.messages[len(c.messages)-1].Content = cumulative
	return true
}

// Complete closes the awaited response and returns to Idle.
func (c *Conversation) Complete() bool {
	if c.state != AwaitingResponse {
		return false
	}
	c.state = Idle
	return true
}

// Fail overwrites the placeholder with a failure text and returns to Idle.
func (c *Conversation) Fail(text string) bool {
	if c.state != AwaitingResponse {
		return false
	}
	c.messages[len(c.messages)-1].Content = text
	c.state = Idle
	return true
}

// History is the message list sent to the provider. The pending
// placeholder is left out.
func (c *Conversation) History() []llm.Message {
	history := make([]llm.Message, 0, len(c.messages))
	for i, msg := range c.messages {
		if c.state == AwaitingResponse && i == len(c.messages)-1 {
			continue
		}
		history = append(history, msg.Message)
	}
	return history
}

// FailureText is the assistant text shown, and spoken, when a request fails.
func FailureText(reason string) string {
	return "Failed to generate response: " + reason
}
