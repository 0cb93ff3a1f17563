package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/infrastructure/mockprovider"
	"github.com/placebadges/acquisition/internal/infrastructure/queue"
)

type errorResponse struct {
	Error string `json:"error"`
}

// knownErrors maps sentinel errors to HTTP status codes. The error text is
// returned to the client as is, except where message is set.
var knownErrors = []struct {
	target  error
	status  int
	message string
}{
	{domain.ErrNoCurrentReading, http.StatusUnprocessableEntity, ""},
	{domain.ErrAlreadyAcquired, http.StatusConflict, ""},
	{domain.ErrResolutionInFlight, http.StatusConflict, ""},
	{mockprovider.ErrStopped, http.StatusConflict, ""},
	{domain.ErrUnknownFixture, http.StatusNotFound, ""},
	{domain.ErrPipelineStopped, http.StatusServiceUnavailable, ""},
	{queue.ErrQueueFull, http.StatusServiceUnavailable, ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Unknown errors
// are logged with the request id and reported as a plain 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg, known := statusFor(err)
		if !known {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusFor(err error) (int, string, bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), true
	}
	for _, k := range knownErrors {
		if !errors.Is(err, k.target) {
			continue
		}
		if k.message != "" {
			return k.status, k.message, true
		}
		return k.status, err.Error(), true
	}
	return http.StatusInternalServerError, "internal server error", false
}
