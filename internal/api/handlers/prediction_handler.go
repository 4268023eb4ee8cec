package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocomet/taxi-fare/internal/api/dto"
	apperrors "github.com/gocomet/taxi-fare/pkg/errors"
)

// CreatePrediction handles POST /v1/predictions
func (h *Handlers) CreatePrediction(c *gin.Context) {
	var req dto.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest("Invalid request payload: "+err.Error(), err))
		return
	}

	t, err := h.Predictions.PredictAndPersist(c.Request.Context(), req.ToFeatures())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/v1/trips/"+t.ID.String())
	c.JSON(http.StatusCreated, dto.NewTripResponse(t))
}
