package api

import (
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

// HealthCheck is one dependency's health probe result.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	ActiveStreams int    `json:"active_streams"`
	LLMProvider   string `json:"llm_provider"`
	LLMAvailable  bool   `json:"llm_available"`
	MockResponses bool   `json:"mock_responses"`
}

// StartDiscussionResponse is returned by POST /api/v1/discussions.
type StartDiscussionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// EndDiscussionResponse is returned by DELETE /api/v1/discussions/:id.
type EndDiscussionResponse struct {
	Success bool `json:"success"`
	Existed bool `json:"existed"`
}

// RAGResponse is returned by POST /test/rag.
type RAGResponse struct {
	Success bool         `json:"success"`
	Hits    []vector.Hit `json:"hits"`
}
