package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoughEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: 1,
		},
		{
			name:     "Short string (2 runes)",
			input:    "Go",
			expected: 1,
		},
		{
			name:     "Exactly 4 runes",
			input:    "Heya",
			expected: 1,
		},
		{
			name:     "9 runes",
			input:    "Hello GPT",
			expected: 2,
		},
		{
			name:     "Multibyte runes count once",
			input:    "日本語のテキスト",
			expected: 2,
		},
		{
			name:     "Longer sentence",
			input:    "This is a longer sentence with multiple words.",
			expected: 11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoughEstimateTokens(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEstimateHistoryTokens(t *testing.T) {
	messages := []Message{
		{Role: Assistant, Content: "Hello! How can I help?"},
		{Role: User, Content: "weather?"},
		{Role: Assistant, Content: ""},
	}

	assert.Equal(t, 5+2, EstimateHistoryTokens(messages))
	assert.Equal(t, 0, EstimateHistoryTokens(nil))
}
