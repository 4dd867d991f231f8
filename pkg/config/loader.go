package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads settings from an optional YAML file, applies environment
// overrides, validates, and returns the ready-to-use Settings.
//
// Steps performed:
//  1. Start from Defaults()
//  2. Merge the YAML file at path (missing file is not an error)
//  3. Apply SECTION__FIELD environment variable overrides
//  4. Validate
func Load(path string) (*Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, NewLoadError(path, err)
			}
			slog.Info("Loaded settings file", "path", path)
		case errors.Is(err, os.ErrNotExist):
			slog.Info("Settings file not found, using defaults", "path", path)
		default:
			return nil, NewLoadError(path, err)
		}
	}

	if err := applyEnvOverrides(s); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// applyEnvOverrides maps SECTION__FIELD environment variables onto the
// flat settings struct. The double underscore is the nesting delimiter
// of the external contract, e.g. AI__OPENROUTER_MODEL.
func applyEnvOverrides(s *Settings) error {
	for env, set := range envBindings(s) {
		v, ok := os.LookupEnv(env)
		if v == "" || !ok {
			continue
		}
		if err := set(v); err != nil {
			return NewFieldError(env, err.Error())
		}
	}
	return nil
}

func envBindings(s *Settings) map[string]func(string) error {
	return map[string]func(string) error{
		"SERVER__PORT":      bindInt(&s.ServerPort),
		"SERVER__BIND_HOST": bindString(&s.BindHost),

		"OCR__WORKER_ENDPOINT":      bindString(&s.OCRWorkerEndpoint),
		"OCR__BASE_TIMEOUT_SECONDS": bindInt(&s.OCRBaseTimeoutSeconds),
		"OCR__RETRY_ATTEMPTS":       bindInt(&s.OCRRetryAttempts),
		"OCR__RETRY_DELAY_SECONDS":  bindInt(&s.OCRRetryDelaySeconds),

		"REDIS__ADDR":     bindString(&s.RedisAddr),
		"REDIS__PASSWORD": bindString(&s.RedisPassword),
		"REDIS__DB":       bindInt(&s.RedisDB),

		"SESSION__TTL_HOURS": bindInt(&s.SessionTTLHours),

		"DISCUSSION__CONTEXT_WINDOW_SIZE": bindInt(&s.ContextWindowSize),
		"DISCUSSION__MAX_BOOK_CHUNKS":     bindInt(&s.MaxBookChunks),
		"DISCUSSION__TOKEN_BUDGET":        bindInt(&s.TokenBudget),
		"DISCUSSION__PRESERVE_RECENT":     bindInt(&s.PreserveRecent),
		"DISCUSSION__COMPARISON_WINDOW":   bindInt(&s.ComparisonWindow),

		"VECTOR__QDRANT_HOST":     bindString(&s.QdrantHost),
		"VECTOR__QDRANT_PORT":     bindInt(&s.QdrantPort),
		"VECTOR__EMBEDDING_MODEL": bindString(&s.EmbeddingModel),
		"VECTOR__EMBEDDING_DIM":   bindInt(&s.EmbeddingDim),

		"CLEANUP__ENABLED":             bindBool(&s.CleanupEnabled),
		"CLEANUP__DELAY_SECONDS":       bindInt(&s.CleanupDelaySeconds),
		"CLEANUP__RETRY_ATTEMPTS":      bindInt(&s.CleanupRetryAttempts),
		"CLEANUP__RETRY_DELAY_SECONDS": bindInt(&s.CleanupRetryDelaySeconds),

		"AI__PROVIDER":         bindProvider(&s.LLMProvider),
		"AI__MODEL":            bindString(&s.LLMModel),
		"AI__API_KEY_ENV":      bindString(&s.LLMAPIKeyEnv),
		"AI__BASE_URL":         bindString(&s.LLMBaseURL),
		"AI__OPENROUTER_MODEL": bindString(&s.OpenRouterModel),
		"AI__MOCK_RESPONSES":   bindBool(&s.MockResponses),
		"AI__TOKENIZER":        bindTokenizer(&s.Tokenizer),
		"AI__SUMMARY_STRATEGY": bindStrategy(&s.SummaryStrategy),
	}
}

func bindString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func bindInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		*dst = n
		return nil
	}
}

func bindBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", v)
		}
		*dst = b
		return nil
	}
}

func bindProvider(dst *LLMProviderType) func(string) error {
	return func(v string) error {
		p := LLMProviderType(v)
		if !p.IsValid() {
			return fmt.Errorf("unknown provider: %q", v)
		}
		*dst = p
		return nil
	}
}

func bindTokenizer(dst *TokenizerKind) func(string) error {
	return func(v string) error {
		k := TokenizerKind(v)
		if !k.IsValid() {
			return fmt.Errorf("unknown tokenizer: %q", v)
		}
		*dst = k
		return nil
	}
}

func bindStrategy(dst *SummaryStrategy) func(string) error {
	return func(v string) error {
		st := SummaryStrategy(v)
		if !st.IsValid() {
			return fmt.Errorf("unknown summary strategy: %q", v)
		}
		*dst = st
		return nil
	}
}
