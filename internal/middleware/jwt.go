// Package middleware contains reusable HTTP middleware: bearer token
// authentication and Redis-backed rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-hall-reservation/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the caller's identity into the request context.  Handlers on
// protected routes can read it via c.Get("user_id"), c.Get("name") and
// c.Get("email").  Missing or unverifiable credentials reject the request
// with 401; unlike the realtime channel, request-style calls never degrade
// to a guest identity.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			id, err := utils.ParseToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", id.UserID)
			c.Set("name", id.Name)
			c.Set("email", id.Email)
			return next(c)
		}
	}
}

// PrincipalName extracts the authenticated display name stored by JWTAuth.
// It returns false when the route was not protected or the value is
// missing.
func PrincipalName(c echo.Context) (string, bool) {
	name, ok := c.Get("name").(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
