package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token    string           `json:"token"`
	Operator *domain.Operator `json:"operator,omitempty"`
}

type deviceTokenResponse struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
}

// Login authenticates an operator and returns a JWT token.
//
// @Summary      Operator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/token [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	token, op, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, Operator: op})
}

// IssueDeviceToken mints a token that may only push readings.
//
// @Summary      Issue a device token
// @Tags         auth
// @Produce      json
// @Param        id   path      string  true  "Device identifier"
// @Success      201  {object}  deviceTokenResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/devices/{id}/token [post]
func (h *AuthHandler) IssueDeviceToken(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}

	deviceID := c.Param("id")
	token, err := h.authService.IssueDeviceToken(c.Request().Context(), deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid device id"})
		}
		return err
	}

	return c.JSON(http.StatusCreated, deviceTokenResponse{DeviceID: deviceID, Token: token})
}
