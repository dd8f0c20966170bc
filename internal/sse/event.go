package sse

// Event is one decoded `data:` payload of a chat-completions stream.
// Every level is optional; providers omit fields freely.
type Event struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Delta *Delta `json:"delta,omitempty"`
}

type Delta struct {
	Content *string `json:"content,omitempty"`
}

// Text returns the content delta of the first choice. ok is false when the
// event carries no delta text.
func (e Event) Text() (text string, ok bool) {
	if len(e.Choices) == 0 {
		return "", false
	}
	delta := e.Choices[0].Delta
	if delta == nil || delta.Content == nil || *delta.Content == "" {
		return "", false
	}
	return *delta.Content, true
}
