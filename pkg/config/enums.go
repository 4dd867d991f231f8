package config

// MeetingType defines the supported meeting kinds for lifecycle operations
type MeetingType string

const (
	// MeetingTypeDiscussion is an AI-moderated group discussion
	MeetingTypeDiscussion MeetingType = "discussion"
	// MeetingTypeQuiz is a quiz-generation meeting
	MeetingTypeQuiz MeetingType = "quiz"
	// MeetingTypeProofreading is a proofreading meeting
	MeetingTypeProofreading MeetingType = "proofreading"
)

// IsValid checks if the meeting type is valid
func (t MeetingType) IsValid() bool {
	return t == MeetingTypeDiscussion || t == MeetingTypeQuiz || t == MeetingTypeProofreading
}

// LLMProviderType defines supported LLM providers
type LLMProviderType string

const (
	// LLMProviderTypeOpenAI is the OpenAI API (or any compatible endpoint)
	LLMProviderTypeOpenAI LLMProviderType = "openai"
	// LLMProviderTypeAnthropic is the Anthropic Claude API
	LLMProviderTypeAnthropic LLMProviderType = "anthropic"
	// LLMProviderTypeOpenRouter is OpenRouter's OpenAI-compatible API
	LLMProviderTypeOpenRouter LLMProviderType = "openrouter"
	// LLMProviderTypeMock returns deterministic canned responses (test mode)
	LLMProviderTypeMock LLMProviderType = "mock"
)

// IsValid checks if the LLM provider type is valid
func (t LLMProviderType) IsValid() bool {
	switch t {
	case LLMProviderTypeOpenAI,
		LLMProviderTypeAnthropic,
		LLMProviderTypeOpenRouter,
		LLMProviderTypeMock:
		return true
	default:
		return false
	}
}

// TokenizerKind selects how token counts are estimated
type TokenizerKind string

const (
	// TokenizerKindHeuristic estimates tokens from per-script character ratios
	TokenizerKindHeuristic TokenizerKind = "heuristic"
	// TokenizerKindProvider uses the provider's exact tokenizer when available
	TokenizerKindProvider TokenizerKind = "provider"
)

// IsValid checks if the tokenizer kind is valid
func (k TokenizerKind) IsValid() bool {
	return k == TokenizerKindHeuristic || k == TokenizerKindProvider
}

// SummaryStrategy selects how dropped conversation prefixes are summarized
type SummaryStrategy string

const (
	// SummaryStrategyExtractive scores and selects sentences under a token cap
	SummaryStrategyExtractive SummaryStrategy = "extractive"
	// SummaryStrategyAbstractive asks the LLM for a free-form summary
	SummaryStrategyAbstractive SummaryStrategy = "abstractive"
	// SummaryStrategyTemplate fills a fixed slot summary, no LLM involved
	SummaryStrategyTemplate SummaryStrategy = "template"
	// SummaryStrategyHybrid concatenates template + abstractive, falling back
	// to template alone when the LLM is unavailable
	SummaryStrategyHybrid SummaryStrategy = "hybrid"
)

// IsValid checks if the summary strategy is valid
func (s SummaryStrategy) IsValid() bool {
	switch s {
	case SummaryStrategyExtractive,
		SummaryStrategyAbstractive,
		SummaryStrategyTemplate,
		SummaryStrategyHybrid:
		return true
	default:
		return false
	}
}
