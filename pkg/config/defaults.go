package config

// Defaults returns a Settings populated with the documented default
// values. Loading merges the YAML file and environment overrides on top.
func Defaults() *Settings {
	return &Settings{
		ServerPort: 50052,
		BindHost:   "0.0.0.0",

		OCRBaseTimeoutSeconds: 30,
		OCRRetryAttempts:      3,
		OCRRetryDelaySeconds:  2,
		MaxUploadBytes:        100 << 20, // 100 MiB upload cap
		WorkerChunkBytes:      2 << 20,   // 2 MiB frames on the worker leg
		ServerMaxMessageBytes: 50 << 20,
		WorkerMaxMessageBytes: 200 << 20,

		RedisAddr:       "localhost:6379",
		SessionTTLHours: 24,

		ContextWindowSize: 20,
		MaxBookChunks:     3,
		TokenBudget:       4000,
		PreserveRecent:    2,
		ComparisonWindow:  3,

		QdrantHost:     "localhost",
		QdrantPort:     6334,
		EmbeddingModel: "text-embedding-3-small",
		EmbeddingDim:   1536,

		CleanupEnabled:           true,
		CleanupDelaySeconds:      30,
		CleanupRetryAttempts:     3,
		CleanupRetryDelaySeconds: 5,

		LLMProvider:     LLMProviderTypeOpenAI,
		LLMModel:        "gpt-4o-mini",
		LLMAPIKeyEnv:    "OPENAI_API_KEY",
		Tokenizer:       TokenizerKindHeuristic,
		SummaryStrategy: SummaryStrategyHybrid,
	}
}
