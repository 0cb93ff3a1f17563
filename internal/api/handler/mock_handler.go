package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// MockProvider is the operator-facing side of the mock positioning provider.
type MockProvider interface {
	Start()
	Stop()
	Running() bool
	PushReading(lat, lon float64) (domain.PositionReading, error)
	PushFixture(name string) (domain.PositionReading, error)
}

type MockHandler struct {
	provider MockProvider
}

func NewMockHandler(provider MockProvider) *MockHandler {
	return &MockHandler{provider: provider}
}

// Start enables the mock provider.
//
// @Summary      Start the mock provider
// @Tags         mock
// @Produce      json
// @Success      200  {object}  mockStatusResponse
// @Security     BearerAuth
// @Router       /v1/mock/start [post]
func (h *MockHandler) Start(c echo.Context) error {
	h.provider.Start()
	return c.JSON(http.StatusOK, mockStatusResponse{Running: h.provider.Running()})
}

// Stop disables the mock provider.
//
// @Summary      Stop the mock provider
// @Tags         mock
// @Produce      json
// @Success      200  {object}  mockStatusResponse
// @Security     BearerAuth
// @Router       /v1/mock/stop [post]
func (h *MockHandler) Stop(c echo.Context) error {
	h.provider.Stop()
	return c.JSON(http.StatusOK, mockStatusResponse{Running: h.provider.Running()})
}

// PushReading injects a reading at the given coordinate.
//
// @Summary      Inject a mock reading
// @Tags         mock
// @Accept       json
// @Produce      json
// @Param        body  body      coordinateRequest  true  "Coordinate"
// @Success      202   {object}  mockReadingResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/mock/readings [post]
func (h *MockHandler) PushReading(c echo.Context) error {
	var req coordinateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r, err := h.provider.PushReading(*req.Latitude, *req.Longitude)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, mockReadingResponse{Reading: r})
}

// PushFixture injects one of the canned fixtures.
//
// @Summary      Inject a mock fixture
// @Tags         mock
// @Produce      json
// @Param        name  path      string  true  "Fixture name"  Enums(place_one, place_no_country, place_two)
// @Success      202   {object}  mockReadingResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/mock/fixtures/{name} [post]
func (h *MockHandler) PushFixture(c echo.Context) error {
	var req fixtureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid fixture")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r, err := h.provider.PushFixture(req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, mockReadingResponse{Reading: r})
}
