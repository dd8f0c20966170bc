package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/klemjul/talkai/internal/sse"
)

const maxErrorBodySize = 1 << 20

type httpChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type httpChatRequest struct {
	Model    string            `json:"model"`
	Messages []httpChatMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

// llmClientHTTP talks to any OpenAI-compatible chat-completions endpoint
// and decodes the streamed body itself.
type llmClientHTTP struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

type LLMClientHTTP LLMClient

func newHTTPClient(httpClient *http.Client, endpoint string, apiKey string, model string) LLMClientHTTP {
	return &llmClientHTTP{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

func (ai *llmClientHTTP) Send(ctx context.Context, messages []Message) (*LLMSendResponse, error) {
	full, err := ai.chat(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	return &LLMSendResponse{Content: full}, nil
}

func (ai *llmClientHTTP) Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	out := make(chan LLMStreamEvent)

	go func() {
		defer close(out)

		full, err := ai.chat(ctx, messages, func(delta string) {
			out <- LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: delta}
		})
		if err != nil {
			out <- LLMStreamEvent{
				Type:    LLMStreamEventTypeError,
				Content: err.Error(),
			}
			return
		}

		out <- LLMStreamEvent{
			Type:    LLMStreamEventTypeComplete,
			Content: full,
		}
	}()

	return out
}

func (ai *llmClientHTTP) chat(ctx context.Context, messages []Message, onDelta func(string)) (string, error) {
	body, err := json.Marshal(httpChatRequest{
		Model:    ai.model,
		Messages: ai.toHTTPMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ai.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+ai.apiKey)

	resp, err := ai.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	if resp.Body == nil {
		return "", errors.New("response has no body")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", newAPIError(resp.StatusCode, resp.Status, errBody)
	}
	if resp.Body == http.NoBody {
		return "", errors.New("response has no body")
	}

	return sse.Decode(resp.Body, func(delta, _ string) {
		if onDelta != nil {
			onDelta(delta)
		}
	})
}

func (ai *llmClientHTTP) toHTTPMessages(messages []Message) []httpChatMessage {
	httpMessages := make([]httpChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = User
		}
		httpMessages = append(httpMessages, httpChatMessage{
			Role:    string(role),
			Content: msg.Content,
		})
	}
	return httpMessages
}
