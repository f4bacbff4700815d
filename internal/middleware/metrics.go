package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/metrics"
)

// Metrics records request counts and latencies by matched route.
// Requests for skipPath are not observed.
func Metrics(skipPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipPath != "" && c.Request().URL.Path == skipPath {
				return next(c)
			}

			done := metrics.TrackInFlight()
			defer done()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			metrics.ObserveHTTP(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))
			return err
		}
	}
}
