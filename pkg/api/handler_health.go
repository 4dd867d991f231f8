package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/openSongce/bookglebookgle-sub001/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
// Probes the session store and vector store; the LLM provider is
// reported but never fails the check, so an orchestrator does not
// restart the server over a flaky external model API.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	for name, check := range s.checks {
		if err := check(reqCtx); err != nil {
			status = healthStatusUnhealthy
			checks[name] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
		} else {
			checks[name] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	if s.gateway != nil && !s.gateway.Available() {
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
		checks["llm"] = HealthCheck{Status: healthStatusDegraded, Message: "no provider configured"}
	} else {
		checks["llm"] = HealthCheck{Status: healthStatusHealthy}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.GitCommit,
		Checks:  checks,
	})
}
