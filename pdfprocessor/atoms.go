package pdfprocessor

// CharsPerToken is the fixed approximation used for every token budget.
const CharsPerToken = 4

// DefaultTokenBudget is the budget applied when callers pass zero or less.
const DefaultTokenBudget = 10000

// EstimateTokenCount estimates tokens as characters divided by four.
func EstimateTokenCount(text string) int {
	return len([]rune(text)) / CharsPerToken
}

// TruncateToTokenBudget returns the longest prefix of text whose length in
// characters does not exceed maxTokens × 4. Text already within the budget is
// returned unchanged. maxTokens <= 0 selects DefaultTokenBudget.
//
// This is a pure function with no dependencies.
//
// Example:
//
//	TruncateToTokenBudget("abcdefghij", 2) // "abcdefgh"
func TruncateToTokenBudget(text string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultTokenBudget
	}
	return TruncateChars(text, maxTokens*CharsPerToken)
}

// TruncateChars returns at most maxChars characters (runes) of text, never
// splitting a multi-byte character.
func TruncateChars(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	// Byte length bounds rune count, so short strings need no decoding.
	if len(text) <= maxChars {
		return text
	}

	count := 0
	for i := range text {
		if count == maxChars {
			return text[:i]
		}
		count++
	}
	return text
}
