package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go/option"
)

type LLMTokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

type LLMSendResponse struct {
	Content string
	Usage   LLMTokenUsage
}

type LLMStreamEventType string

const (
	LLMStreamEventTypeMessage  LLMStreamEventType = "content"
	LLMStreamEventTypeComplete LLMStreamEventType = "complete"
	LLMStreamEventTypeError    LLMStreamEventType = "error"
)

// LLMStreamEvent is a content delta, or the terminal complete/error event.
// A complete event carries the full reply text.
type LLMStreamEvent struct {
	Content string
	Usage   LLMTokenUsage
	Type    LLMStreamEventType
}

type LLMClient interface {
	Send(ctx context.Context, messages []Message) (*LLMSendResponse, error)
	Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent
}

type LLMProvider string

const (
	LLMProviderHTTP   LLMProvider = "http"
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderOllama LLMProvider = "ollama"
)

var LLMProviders = []LLMProvider{LLMProviderHTTP, LLMProviderOpenAI, LLMProviderOllama}

const (
	DefaultHTTPEndpoint   = "https://api.openai.com/v1/chat/completions"
	DefaultOllamaEndpoint = "http://localhost:11434"
)

type LLMClientOptions struct {
	Model    string
	Endpoint string
	APIKey   string
}

func NewClient(provider LLMProvider, opts LLMClientOptions) (LLMClient, error) {
	switch provider {
	case LLMProviderHTTP:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("API key is not set")
		}
		endpoint := opts.Endpoint
		if endpoint == "" {
			endpoint = DefaultHTTPEndpoint
		}
		if _, err := parseHTTPURL(endpoint); err != nil {
			return nil, fmt.Errorf("endpoint URL is invalid: %w", err)
		}
		return newHTTPClient(http.DefaultClient, endpoint, opts.APIKey, opts.Model), nil
	case LLMProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("API key is not set")
		}
		if opts.Endpoint == "" {
			return newOpenAIClient(opts.APIKey, opts.Model), nil
		}
		baseURL, err := openAIBaseURL(opts.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("endpoint URL is invalid: %w", err)
		}
		return newOpenAIClient(opts.APIKey, opts.Model, option.WithBaseURL(baseURL)), nil
	case LLMProviderOllama:
		endpoint := opts.Endpoint
		if endpoint == "" {
			endpoint = DefaultOllamaEndpoint
		}
		localEndpoint, err := parseHTTPURL(endpoint)
		if err != nil {
			return nil, fmt.Errorf("ollama endpoint URL is invalid: %w", err)
		}
		return newOllamaClient(*localEndpoint, opts.Model), nil
	default:
		return nil, fmt.Errorf("%s: invalid provider", provider)
	}
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// openAIBaseURL maps a full chat-completions endpoint onto the SDK base URL.
func openAIBaseURL(endpoint string) (string, error) {
	u, err := parseHTTPURL(endpoint)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/chat/completions")
	return strings.TrimSuffix(u.String(), "/") + "/", nil
}
