package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type ollamaChatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

type llmClientOllama struct {
	client ollamaChatter
	model  string
}

type LlmClientOllama LLMClient

func newOllamaClient(localEndpoint url.URL, model string) LlmClientOllama {
	return &llmClientOllama{
		client: api.NewClient(&localEndpoint, http.DefaultClient),
		model:  model,
	}
}

func (ai *llmClientOllama) Send(ctx context.Context, messages []Message) (*LLMSendResponse, error) {
	stream := ai.chat(ctx, messages)
	var fullResult string
	for event := range stream {
		switch event.Type {
		case LLMStreamEventTypeMessage:
			fullResult += event.Content
		case LLMStreamEventTypeComplete:
			return &LLMSendResponse{
				Content: fullResult,
				Usage:   event.Usage,
			}, nil
		case LLMStreamEventTypeError:
			return nil, fmt.Errorf("ollama error: %s", event.Content)
		}
	}

	return &LLMSendResponse{
		Content: fullResult,
	}, nil
}

func (ai *llmClientOllama) Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	return ai.chat(ctx, messages)
}

func (ai *llmClientOllama) chat(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	out := make(chan LLMStreamEvent)
	stream := true

	go func() {
		defer close(out)
		var full strings.Builder
		err := ai.client.Chat(ctx, &api.ChatRequest{
			Model:    ai.model,
			Messages: ai.toOllamaMessages(messages),
			Stream:   &stream,
		}, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				full.WriteString(resp.Message.Content)
				out <- LLMStreamEvent{Content: resp.Message.Content, Type: LLMStreamEventTypeMessage}
			}
			if resp.Done {
				out <- LLMStreamEvent{
					Type:    LLMStreamEventTypeComplete,
					Content: full.String(),
					Usage: LLMTokenUsage{
						InputTokens:  int64(resp.PromptEvalCount),
						OutputTokens: int64(resp.EvalCount),
					},
				}
			}
			return nil
		})

		if err != nil {
			out <- LLMStreamEvent{
				Type:    LLMStreamEventTypeError,
				Content: err.Error(),
			}
		}
	}()

	return out
}

func (ai *llmClientOllama) toOllamaMessages(messages []Message) []api.Message {
	ollamaMessages := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = User
		}
		ollamaMessages = append(ollamaMessages, api.Message{
			Role:    string(role),
			Content: msg.Content,
		})
	}
	return ollamaMessages
}
