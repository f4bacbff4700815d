package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/settings"
)

// APIKey requires "Authorization: Bearer <key>" matching the current settings key.
// The key is read on every request so a rotation takes effect immediately.
func APIKey(provider settings.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "missing authorization header")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return unauthorized(c, "invalid authorization header")
			}

			expected := provider.Get().APIKey
			if expected == "" || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(expected)) != 1 {
				return unauthorized(c, "invalid api key")
			}

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]string{"status": "error", "message": message})
}
