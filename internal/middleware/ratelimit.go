package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/anycrm/internal/config"
)

// RateLimit applies one token bucket shared by every request passing through it.
// A zero config disables limiting.
func RateLimit(cfg config.RateLimitConfig, message string) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(perRequest), cfg.Requests)
	if message == "" {
		message = "rate limit exceeded"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				c.Response().Header().Set("Retry-After", retryAfter(perRequest))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"status": "error", "message": message})
			}
			return next(c)
		}
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
