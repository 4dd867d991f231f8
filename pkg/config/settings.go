package config

import (
	"fmt"
	"time"
)

// Settings is the flat, process-wide configuration object. It is loaded
// once at startup and treated as read-only afterwards.
type Settings struct {
	// Server
	ServerPort int    `yaml:"server_port"`
	BindHost   string `yaml:"bind_host"`

	// OCR worker leg
	OCRWorkerEndpoint      string `yaml:"ocr_worker_endpoint"`
	OCRBaseTimeoutSeconds  int    `yaml:"ocr_base_timeout_seconds"`
	OCRRetryAttempts       int    `yaml:"ocr_retry_attempts"`
	OCRRetryDelaySeconds   int    `yaml:"ocr_retry_delay_seconds"`
	MaxUploadBytes         int64  `yaml:"max_upload_bytes"`
	WorkerChunkBytes       int    `yaml:"worker_chunk_bytes"`
	ServerMaxMessageBytes  int64  `yaml:"server_max_message_bytes"`
	WorkerMaxMessageBytes  int64  `yaml:"worker_max_message_bytes"`

	// Session store
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`

	// Discussion engine
	ContextWindowSize int `yaml:"context_window_size"`
	MaxBookChunks     int `yaml:"max_book_chunks"`
	TokenBudget       int `yaml:"token_budget"`
	PreserveRecent    int `yaml:"preserve_recent"`
	ComparisonWindow  int `yaml:"comparison_window"`

	// Vector store
	QdrantHost     string `yaml:"qdrant_host"`
	QdrantPort     int    `yaml:"qdrant_port"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingDim   int    `yaml:"embedding_dim"`

	// Meeting cleanup
	CleanupEnabled            bool `yaml:"cleanup_enabled"`
	CleanupDelaySeconds       int  `yaml:"cleanup_delay_seconds"`
	CleanupRetryAttempts      int  `yaml:"cleanup_retry_attempts"`
	CleanupRetryDelaySeconds  int  `yaml:"cleanup_retry_delay_seconds"`

	// LLM gateway
	LLMProvider     LLMProviderType `yaml:"llm_provider"`
	LLMModel        string          `yaml:"llm_model"`
	LLMAPIKeyEnv    string          `yaml:"llm_api_key_env"`
	LLMBaseURL      string          `yaml:"llm_base_url"`
	OpenRouterModel string          `yaml:"openrouter_model"`
	MockResponses   bool            `yaml:"mock_responses"`
	Tokenizer       TokenizerKind   `yaml:"tokenizer"`
	SummaryStrategy SummaryStrategy `yaml:"summary_strategy"`
}

// OCRBaseTimeout returns the base OCR timeout as a duration.
func (s *Settings) OCRBaseTimeout() time.Duration {
	return time.Duration(s.OCRBaseTimeoutSeconds) * time.Second
}

// OCRRetryDelay returns the OCR retry backoff base as a duration.
func (s *Settings) OCRRetryDelay() time.Duration {
	return time.Duration(s.OCRRetryDelaySeconds) * time.Second
}

// SessionTTL returns the session TTL as a duration.
func (s *Settings) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLHours) * time.Hour
}

// CleanupDelay returns the grace period before a vector drop is attempted.
func (s *Settings) CleanupDelay() time.Duration {
	return time.Duration(s.CleanupDelaySeconds) * time.Second
}

// CleanupRetryDelay returns the delay between vector drop retries.
func (s *Settings) CleanupRetryDelay() time.Duration {
	return time.Duration(s.CleanupRetryDelaySeconds) * time.Second
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures. The OCR worker endpoint is the one mandatory field.
func (s *Settings) Validate() error {
	if s.OCRWorkerEndpoint == "" {
		return NewFieldError("ocr_worker_endpoint", "required")
	}
	if s.ServerPort <= 0 || s.ServerPort > 65535 {
		return NewFieldError("server_port", fmt.Sprintf("invalid port %d", s.ServerPort))
	}
	if !s.LLMProvider.IsValid() {
		return NewFieldError("llm_provider", fmt.Sprintf("unknown provider %q", s.LLMProvider))
	}
	if !s.Tokenizer.IsValid() {
		return NewFieldError("tokenizer", fmt.Sprintf("unknown tokenizer %q", s.Tokenizer))
	}
	if !s.SummaryStrategy.IsValid() {
		return NewFieldError("summary_strategy", fmt.Sprintf("unknown strategy %q", s.SummaryStrategy))
	}
	if s.ContextWindowSize < 1 {
		return NewFieldError("context_window_size", "must be at least 1")
	}
	if s.MaxBookChunks < 1 {
		return NewFieldError("max_book_chunks", "must be at least 1")
	}
	if s.PreserveRecent < 1 {
		return NewFieldError("preserve_recent", "must be at least 1")
	}
	if s.SessionTTLHours < 1 {
		return NewFieldError("session_ttl_hours", "must be at least 1")
	}
	if s.MaxUploadBytes <= 0 {
		return NewFieldError("max_upload_bytes", "must be positive")
	}
	if s.WorkerChunkBytes <= 0 {
		return NewFieldError("worker_chunk_bytes", "must be positive")
	}
	if s.OCRRetryAttempts < 1 {
		return NewFieldError("ocr_retry_attempts", "must be at least 1")
	}
	if s.EmbeddingDim < 1 {
		return NewFieldError("embedding_dim", "must be at least 1")
	}
	return nil
}

// Redacted returns a copy safe to expose on the /config test endpoint.
// Secrets are never stored in Settings directly (only env var names),
// but the Redis password is blanked regardless.
func (s *Settings) Redacted() Settings {
	out := *s
	if out.RedisPassword != "" {
		out.RedisPassword = "********"
	}
	return out
}
