package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/core/ports"
)

type AcquisitionHandler struct {
	service ports.AcquisitionService
}

func NewAcquisitionHandler(service ports.AcquisitionService) *AcquisitionHandler {
	return &AcquisitionHandler{service: service}
}

// Current returns the pipeline state and the fresh reading, if any.
//
// @Summary      Current reading and pipeline state
// @Tags         acquisition
// @Produce      json
// @Success      200  {object}  snapshotResponse
// @Failure      503  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/readings/current [get]
func (h *AcquisitionHandler) Current(c echo.Context) error {
	snap, err := h.service.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSnapshotResponse(snap))
}

// Acquire starts a resolution for the current reading.
//
// @Summary      Acquire the place at the current reading
// @Tags         acquisition
// @Produce      json
// @Success      202  {object}  acceptedResponse
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/acquire [post]
func (h *AcquisitionHandler) Acquire(c echo.Context) error {
	if err := h.service.AcquireNow(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "resolution started"})
}

// Reset forgets every acquired place and cancels any in-flight resolution.
//
// @Summary      Reset acquired places
// @Tags         acquisition
// @Success      204
// @Failure      503  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/reset [post]
func (h *AcquisitionHandler) Reset(c echo.Context) error {
	if err := h.service.ResetAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
