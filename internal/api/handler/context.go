package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/api/middleware"
)

// ctxClaims extracts the auth claims injected by the Auth middleware. The
// role must be non-empty; its presence proves the middleware ran.
func ctxClaims(c echo.Context) (subject, role string, err error) {
	role, _ = c.Get(middleware.ContextRole).(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	subject, _ = c.Get(middleware.ContextSubject).(string)
	return subject, role, nil
}
