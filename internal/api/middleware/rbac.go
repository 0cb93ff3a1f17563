package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RBAC admits requests whose token role, set by Auth, is one of roles.
// Device tokens only reach the reading ingestion routes this way.
func RBAC(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "token carries no role"})
			}
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "role " + role + " may not access this resource"})
			}
			return next(c)
		}
	}
}
