package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gocomet/taxi-fare/internal/api/dto"
	"github.com/gocomet/taxi-fare/internal/api/middleware"
	"github.com/gocomet/taxi-fare/internal/domain/trip"
	apperrors "github.com/gocomet/taxi-fare/pkg/errors"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// TripPredictor predicts and stores a new trip
type TripPredictor interface {
	PredictAndPersist(ctx context.Context, f *trip.Features) (*trip.Trip, error)
}

// TripLifecycle drives existing trips through their states
type TripLifecycle interface {
	Accept(ctx context.Context, id uuid.UUID) (*trip.Trip, error)
	Start(ctx context.Context, id uuid.UUID) (*trip.Trip, error)
	Complete(ctx context.Context, id uuid.UUID) (*trip.Trip, error)
	Cancel(ctx context.Context, id uuid.UUID) (*trip.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (*trip.Trip, error)
	List(ctx context.Context, page, size int) (trip.Page, error)
}

// EventStream serves live trip events
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	GetActiveConnections() int
}

// Handlers holds all handler dependencies
type Handlers struct {
	Predictions TripPredictor
	Trips       TripLifecycle
	Hub         EventStream
	Logger      logger.Sink
}

// NewHandlers creates a new Handlers instance
func NewHandlers(predictions TripPredictor, trips TripLifecycle, hub EventStream, log logger.Sink) *Handlers {
	return &Handlers{
		Predictions: predictions,
		Trips:       trips,
		Hub:         hub,
		Logger:      log,
	}
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{"status": "healthy"}
	if h.Hub != nil {
		body["websocket_clients"] = h.Hub.GetActiveConnections()
	}
	c.JSON(http.StatusOK, body)
}

// respondError renders err as the JSON error envelope and attaches it to the
// context so the request logger records the cause.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Status, dto.NewErrorResponse(appErr, middleware.GetRequestID(c)))
}
