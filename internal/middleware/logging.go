package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one structured line for each HTTP request.
func Logging(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"request_id", RequestIDFromContext(c),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency", latency,
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			logger.Log(c.Request().Context(), level, "request", attrs...)

			return err
		}
	}
}
