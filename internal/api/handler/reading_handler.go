package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

// ReadingQueue accepts readings for ordered delivery to the pipeline.
type ReadingQueue interface {
	Enqueue(r domain.PositionReading) error
	EnqueueBatch(readings []domain.PositionReading) (int, error)
}

type ReadingHandler struct {
	queue ReadingQueue
	clock clock.Clock
}

func NewReadingHandler(queue ReadingQueue, clk clock.Clock) *ReadingHandler {
	if clk == nil {
		clk = clock.System{}
	}
	return &ReadingHandler{queue: queue, clock: clk}
}

// Push enqueues a single position reading.
//
// @Summary      Push a position reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        body  body      readingRequest  true  "Reading"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/readings [post]
func (h *ReadingHandler) Push(c echo.Context) error {
	var req readingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.queue.Enqueue(toReading(req, h.clock.Now().UnixMilli())); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "reading accepted", Count: 1})
}

// PushBatch enqueues readings in payload order. When the queue fills up the
// accepted prefix stays queued and the request fails.
//
// @Summary      Push a batch of position readings
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        body  body      batchReadingRequest  true  "Readings"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/readings/batch [post]
func (h *ReadingHandler) PushBatch(c echo.Context) error {
	var req batchReadingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	now := h.clock.Now().UnixMilli()
	readings := make([]domain.PositionReading, len(req.Readings))
	for i, r := range req.Readings {
		readings[i] = toReading(r, now)
	}

	n, err := h.queue.EnqueueBatch(readings)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "readings accepted", Count: n})
}
