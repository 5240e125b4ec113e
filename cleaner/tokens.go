package cleaner

import "unicode/utf8"

// EstimateTokens approximates the LLM token count of normalized text as one
// token per three runes. Non-empty text is at least one token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return 0
	case n < 3:
		return 1
	default:
		return n / 3
	}
}
