// Package tokens estimates LLM token usage from text and allocates
// per-section budgets when assembling conversation context.
package tokens

import "unicode"

// Characters-per-token ratios by dominant script. Hangul packs more
// information per token than Latin text, so its ratio is lower.
const (
	charsPerTokenKorean = 2.5
	charsPerTokenLatin  = 4.0
	charsPerTokenMixed  = 3.0

	// estimateOverhead compensates for tokenizer artifacts (whitespace
	// merging, punctuation splits) the character heuristic cannot see.
	estimateOverhead = 1.10

	// koreanDominance is the rune share above which text counts as
	// predominantly one script rather than mixed.
	scriptDominance = 0.7
)

// ExactTokenizer counts tokens with a provider tokenizer. Optional; when
// absent the heuristic estimate is used.
type ExactTokenizer interface {
	CountTokens(text string) (int, error)
}

// Counter estimates token counts. Safe for concurrent use.
type Counter struct {
	exact ExactTokenizer
}

// NewCounter creates a heuristic counter.
func NewCounter() *Counter {
	return &Counter{}
}

// NewExactCounter creates a counter backed by a provider tokenizer,
// falling back to the heuristic when the tokenizer errors.
func NewExactCounter(exact ExactTokenizer) *Counter {
	return &Counter{exact: exact}
}

// Count returns the estimated token count for text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.exact != nil {
		if n, err := c.exact.CountTokens(text); err == nil {
			return n
		}
	}
	return estimate(text)
}

// CountAll sums the estimates of several texts.
func (c *Counter) CountAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += c.Count(t)
	}
	return total
}

func estimate(text string) int {
	runes := []rune(text)
	var korean, latin int
	for _, r := range runes {
		switch {
		case unicode.Is(unicode.Hangul, r):
			korean++
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			latin++
		}
	}

	total := len(runes)
	ratio := charsPerTokenMixed
	if total > 0 {
		switch {
		case float64(korean)/float64(total) >= scriptDominance:
			ratio = charsPerTokenKorean
		case float64(latin)/float64(total) >= scriptDominance:
			ratio = charsPerTokenLatin
		}
	}

	n := int(float64(total) / ratio * estimateOverhead)
	if n < 1 {
		n = 1
	}
	return n
}
