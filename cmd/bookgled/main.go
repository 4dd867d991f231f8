// bookgled — the book club AI backend: streaming PDF ingestion with
// remote OCR, per-meeting vector search, AI-moderated discussions, and
// quiz/proofreading services.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/openSongce/bookglebookgle-sub001/pkg/api"
	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/discussion"
	"github.com/openSongce/bookglebookgle-sub001/pkg/lifecycle"
	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
	"github.com/openSongce/bookglebookgle-sub001/pkg/ocr"
	"github.com/openSongce/bookglebookgle-sub001/pkg/proofread"
	"github.com/openSongce/bookglebookgle-sub001/pkg/quiz"
	"github.com/openSongce/bookglebookgle-sub001/pkg/streams"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
	"github.com/openSongce/bookglebookgle-sub001/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// cleanerFunc adapts a plain function to the lifecycle cleanup hook.
type cleanerFunc func(ctx context.Context, meetingID string) (int, error)

func (f cleanerFunc) CleanupMeeting(ctx context.Context, meetingID string) (int, error) {
	return f(ctx, meetingID)
}

func main() {
	configPath := flag.String("config",
		getEnv("CONFIG_FILE", "./config.yaml"),
		"Path to the settings file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file, continuing with existing environment")
	}

	slog.Info("Starting bookgled",
		"version", version.GitCommit,
		"config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. Session store (Redis)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			slog.Error("Error closing redis client", "error", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		slog.Error("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	sessionStore := discussion.NewRedisStore(rdb, cfg.SessionTTL())
	slog.Info("Connected to redis", "addr", cfg.RedisAddr)

	// 2. LLM gateway and providers
	gateway := llm.NewGateway(cfg.LLMProvider, cfg.MockResponses)
	apiKey := os.Getenv(cfg.LLMAPIKeyEnv)
	switch cfg.LLMProvider {
	case config.LLMProviderTypeOpenAI:
		if apiKey != "" {
			gateway.Register(llm.NewOpenAIProvider(apiKey, cfg.LLMModel, cfg.EmbeddingModel))
		}
	case config.LLMProviderTypeOpenRouter:
		if apiKey != "" {
			gateway.Register(llm.NewOpenRouterProvider(apiKey, cfg.LLMBaseURL, cfg.OpenRouterModel))
		}
	case config.LLMProviderTypeAnthropic:
		if apiKey != "" {
			gateway.Register(llm.NewAnthropicProvider(apiKey, cfg.LLMModel))
		}
	}
	if apiKey == "" && cfg.LLMProvider != config.LLMProviderTypeMock {
		slog.Warn("LLM API key not set",
			"env", cfg.LLMAPIKeyEnv,
			"mock_responses", cfg.MockResponses)
	}
	slog.Info("LLM gateway initialized",
		"provider", cfg.LLMProvider,
		"available", gateway.Available())

	// 3. Vector index (Qdrant)
	// Note: the qdrant client dials lazily; connection failures surface
	// on the first operation.
	qdrantStore, err := vector.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		slog.Error("Failed to create qdrant client",
			"host", cfg.QdrantHost, "port", cfg.QdrantPort, "error", err)
		os.Exit(1)
	}

	// Embeddings ride the OpenAI API regardless of the chat provider.
	var embedder vector.Embedder
	if embedKey := getEnv("OPENAI_API_KEY", apiKey); embedKey != "" && cfg.EmbeddingModel != "" && !cfg.MockResponses {
		embedder = llm.NewOpenAIProvider(embedKey, cfg.LLMModel, cfg.EmbeddingModel)
		slog.Info("Using OpenAI embeddings", "model", cfg.EmbeddingModel, "dim", cfg.EmbeddingDim)
	} else {
		embedder = vector.NewDeterministicEmbedder(cfg.EmbeddingDim)
		slog.Warn("No embedding credentials, using deterministic embedder", "dim", cfg.EmbeddingDim)
	}
	vectors := vector.NewManager(qdrantStore, embedder, cfg.EmbeddingDim)

	// 4. Core services
	engine := discussion.NewEngine(cfg, sessionStore, vectors, gateway)
	registry := streams.NewRegistry()
	quizzes := quiz.NewService(gateway, vectors, cfg.TokenBudget, cfg.MaxBookChunks)
	proofreader := proofread.NewService(gateway)
	coordinator := lifecycle.NewCoordinator(cfg, engine, registry, vectors, map[string]lifecycle.MeetingCleaner{
		"discussion":   cleanerFunc(engine.CleanupMeetingDiscussions),
		"quiz":         quizzes,
		"proofreading": proofreader,
	})

	worker := ocr.NewRemoteWorker(cfg)
	pipeline := ocr.NewPipeline(worker, cfg.MaxUploadBytes)
	slog.Info("Services initialized", "ocr_worker", cfg.OCRWorkerEndpoint)

	// 5. HTTP server
	checks := map[string]api.DependencyCheck{
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		"qdrant": func(ctx context.Context) error {
			_, err := vectors.ListMeetingCollections(ctx)
			return err
		},
	}
	server := api.NewServer(cfg, pipeline, vectors, engine, coordinator, registry, quizzes, proofreader, gateway, checks)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.BindHost, cfg.ServerPort)
		slog.Info("HTTP server listening", "addr", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("bookgled started successfully")

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown: sever streams with a reason, drain requests,
	// then let scheduled vector drops finish.
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if n := registry.DisconnectAll("server shutting down"); n > 0 {
		slog.Info("Disconnected active streams", "streams", n)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	done := make(chan struct{})
	go func() {
		coordinator.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("Scheduled cleanups finished")
	case <-shutdownCtx.Done():
		slog.Warn("Shutdown timeout exceeded, abandoning scheduled cleanups")
	}

	slog.Info("bookgled stopped")
}
