package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

const (
	HeaderAPIKey = "x-api-key"
	ctxUserID    = "user_id"
)

// UserIDFromCtx returns the operator id stored by BearerMiddleware.
func UserIDFromCtx(c echo.Context) (string, bool) {
	id, ok := c.Get(ctxUserID).(string)
	return id, ok && id != ""
}

// APIKeyMiddleware checks the static service key. A missing or wrong key
// is answered with 403, never 401: the session itself is not at fault.
func APIKeyMiddleware(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := strings.TrimSpace(c.Request().Header.Get(HeaderAPIKey))
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return c.JSON(http.StatusForbidden, map[string]any{"message": "Invalid API key", "success": false})
			}
			return next(c)
		}
	}
}

// TokenResolver maps a bearer token to an operator id.
type TokenResolver func(token string) (userID string, ok bool)

// BearerMiddleware requires "Authorization: Bearer <token>" naming a live session.
func BearerMiddleware(resolve TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			tok, found := strings.CutPrefix(h, "Bearer ")
			if !found || strings.TrimSpace(tok) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]any{"message": "Authentication required", "success": false})
			}
			id, ok := resolve(strings.TrimSpace(tok))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]any{"message": "Session expired", "success": false})
			}
			c.Set(ctxUserID, id)
			return next(c)
		}
	}
}
