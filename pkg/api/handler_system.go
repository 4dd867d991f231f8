package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

// statusHandler handles GET /status.
func (s *Server) statusHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &StatusResponse{
		UptimeSeconds: int64(time.Since(s.startedAt) / time.Second),
		ActiveStreams: s.registry.Count(),
		LLMProvider:   string(s.cfg.LLMProvider),
		LLMAvailable:  s.gateway.Available(),
		MockResponses: s.cfg.MockResponses,
	})
}

// configHandler handles GET /config, returning the redacted settings.
func (s *Server) configHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.cfg.Redacted())
}
