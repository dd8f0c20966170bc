package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx answer from a chat-completions endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// newAPIError reads the provider message from an error body, falling back
// to the status text.
func newAPIError(statusCode int, status string, body []byte) *APIError {
	message := ""
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "error", "message"} {
			res := gjson.GetBytes(body, path)
			if res.Type == gjson.String && strings.TrimSpace(res.String()) != "" {
				message = strings.TrimSpace(res.String())
				break
			}
		}
	}
	if message == "" {
		message = statusText(statusCode, status)
	}
	return &APIError{StatusCode: statusCode, Message: message}
}

func statusText(statusCode int, status string) string {
	// status is "401 Unauthorized" on real responses
	if _, text, ok := strings.Cut(status, " "); ok && text != "" {
		return text
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return "unexpected status"
}
