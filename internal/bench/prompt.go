package bench

import "strings"

// SyntheticPrompt approximates a prompt of promptTokens tokens by repeating a
// single word promptTokens/10 times. It is a coarse word count, not a tokenizer.
func SyntheticPrompt(promptTokens int) string {
	n := promptTokens / 10
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("benchmark ", n), " ")
}
