// Package api exposes the HTTP/WebSocket surface: document ingest and
// discussion streams, meeting lifecycle endpoints, and the auxiliary
// test facade over quiz, proofreading, and retrieval.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/openSongce/bookglebookgle-sub001/pkg/config"
	"github.com/openSongce/bookglebookgle-sub001/pkg/discussion"
	"github.com/openSongce/bookglebookgle-sub001/pkg/lifecycle"
	"github.com/openSongce/bookglebookgle-sub001/pkg/llm"
	"github.com/openSongce/bookglebookgle-sub001/pkg/ocr"
	"github.com/openSongce/bookglebookgle-sub001/pkg/proofread"
	"github.com/openSongce/bookglebookgle-sub001/pkg/quiz"
	"github.com/openSongce/bookglebookgle-sub001/pkg/streams"
	"github.com/openSongce/bookglebookgle-sub001/pkg/vector"
)

// DependencyCheck probes one external dependency for the health endpoint.
type DependencyCheck func(ctx context.Context) error

// Server wires the HTTP surface over the core services.
type Server struct {
	cfg         *config.Settings
	pipeline    *ocr.Pipeline
	vectors     *vector.Manager
	engine      *discussion.Engine
	coordinator *lifecycle.Coordinator
	registry    *streams.Registry
	quizzes     *quiz.Service
	proofreader *proofread.Service
	gateway     *llm.Gateway
	checks      map[string]DependencyCheck

	startedAt  time.Time
	httpServer *http.Server
}

// NewServer creates the API server. checks maps dependency names
// (e.g. "redis", "qdrant") to health probes; nil is allowed.
func NewServer(
	cfg *config.Settings,
	pipeline *ocr.Pipeline,
	vectors *vector.Manager,
	engine *discussion.Engine,
	coordinator *lifecycle.Coordinator,
	registry *streams.Registry,
	quizzes *quiz.Service,
	proofreader *proofread.Service,
	gateway *llm.Gateway,
	checks map[string]DependencyCheck,
) *Server {
	return &Server{
		cfg:         cfg,
		pipeline:    pipeline,
		vectors:     vectors,
		engine:      engine,
		coordinator: coordinator,
		registry:    registry,
		quizzes:     quizzes,
		proofreader: proofreader,
		gateway:     gateway,
		checks:      checks,
		startedAt:   time.Now(),
	}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.Use(securityHeaders())
	e.Use(requestLogger())

	e.GET("/health", s.healthHandler)
	e.GET("/status", s.statusHandler)
	e.GET("/config", s.configHandler)

	e.GET("/ws/documents", s.documentsStreamHandler)
	e.GET("/ws/discussion", s.discussionStreamHandler)

	v1 := e.Group("/api/v1")
	v1.POST("/discussions", s.startDiscussionHandler)
	v1.POST("/discussions/:id/messages", s.postMessageHandler)
	v1.DELETE("/discussions/:id", s.endDiscussionHandler)
	v1.POST("/meetings/:id/end", s.endMeetingHandler)
	v1.POST("/meetings/:id/cleanup", s.manualCleanupHandler)
	v1.GET("/meetings/:id/collection", s.collectionInfoHandler)

	e.POST("/test/quiz", s.testQuizHandler)
	e.POST("/test/proofread", s.testProofreadHandler)
	e.POST("/test/rag", s.testRAGHandler)

	return e
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
