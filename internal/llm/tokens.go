package llm

// RoughEstimateTokens approximates the token count of prose text.
func RoughEstimateTokens(text string) int {
	avgCharsPerToken := 4.0
	tokens := int(float64(len([]rune(text))) / avgCharsPerToken)

	if tokens < 1 {
		tokens = 1
	}

	return tokens
}

// EstimateHistoryTokens sums RoughEstimateTokens over a message history.
func EstimateHistoryTokens(messages []Message) int {
	total := 0
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		total += RoughEstimateTokens(msg.Content)
	}
	return total
}
