package api

import (
	"log/slog"
	"time"

	echo "github.com/labstack/echo/v5"
)

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			return next(c)
		}
	}
}

// requestLogger logs one line per request with method, path, status,
// and latency. Stream upgrades log on disconnect, which is expected.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("HTTP request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", responseStatus(c),
				"duration", time.Since(start))
			return err
		}
	}
}

// responseStatus extracts the written status code. Response() exposes
// the writer as http.ResponseWriter; the status lives on the concrete
// *echo.Response.
func responseStatus(c *echo.Context) int {
	if res, ok := c.Response().(*echo.Response); ok {
		return res.Status
	}
	return 0
}
