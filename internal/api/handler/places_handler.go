package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/infrastructure/board"
)

// PlaceBoard exposes the acquired places.
type PlaceBoard interface {
	View() board.View
}

type PlacesHandler struct {
	board PlaceBoard
}

func NewPlacesHandler(b PlaceBoard) *PlacesHandler {
	return &PlacesHandler{board: b}
}

// List returns the acquired places, newest first, and the last notice.
//
// @Summary      List acquired places
// @Tags         places
// @Produce      json
// @Success      200  {object}  board.View
// @Security     BearerAuth
// @Router       /v1/places [get]
func (h *PlacesHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.board.View())
}
