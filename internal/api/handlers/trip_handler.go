package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gocomet/taxi-fare/internal/api/dto"
	"github.com/gocomet/taxi-fare/internal/domain/trip"
	apperrors "github.com/gocomet/taxi-fare/pkg/errors"
)

type tripAction func(ctx context.Context, id uuid.UUID) (*trip.Trip, error)

// ListTrips handles GET /v1/trips?page=&size=
func (h *Handlers) ListTrips(c *gin.Context) {
	var q dto.ListTripsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, apperrors.BadRequest("Invalid paging parameters: "+err.Error(), err))
		return
	}

	page, err := h.Trips.List(c.Request.Context(), q.Page, q.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTripPageResponse(page))
}

// GetTrip handles GET /v1/trips/:id
func (h *Handlers) GetTrip(c *gin.Context) {
	h.runTripAction(c, h.Trips.Get)
}

// AcceptTrip handles PATCH /v1/trips/:id/accept
func (h *Handlers) AcceptTrip(c *gin.Context) {
	h.runTripAction(c, h.Trips.Accept)
}

// StartTrip handles PATCH /v1/trips/:id/start
func (h *Handlers) StartTrip(c *gin.Context) {
	h.runTripAction(c, h.Trips.Start)
}

// CompleteTrip handles PATCH /v1/trips/:id/complete
func (h *Handlers) CompleteTrip(c *gin.Context) {
	h.runTripAction(c, h.Trips.Complete)
}

// CancelTrip handles PATCH /v1/trips/:id/cancel
func (h *Handlers) CancelTrip(c *gin.Context) {
	h.runTripAction(c, h.Trips.Cancel)
}

func (h *Handlers) runTripAction(c *gin.Context, action tripAction) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.BadRequest("trip id must be a UUID", err))
		return
	}

	t, err := action(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTripResponse(t))
}
