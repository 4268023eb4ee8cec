package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/gocomet/taxi-fare/internal/api/handlers"
	"github.com/gocomet/taxi-fare/internal/api/middleware"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Options carries the optional collaborators of the router
type Options struct {
	NewRelic    *newrelic.Application
	Idempotency middleware.IdempotencyStore
	Logger      logger.Sink
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	// Add New Relic middleware if enabled
	if opts.NewRelic != nil {
		r.Use(nrgin.Middleware(opts.NewRelic))
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery())

	r.GET("/health", h.Health)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		v1.POST("/predictions",
			middleware.MaxBodySize(maxBodyBytes),
			middleware.Idempotency(opts.Idempotency, log),
			h.CreatePrediction,
		)

		trips := v1.Group("/trips")
		{
			trips.GET("", h.ListTrips)
			trips.GET("/:id", h.GetTrip)
			trips.PATCH("/:id/accept", h.AcceptTrip)
			trips.PATCH("/:id/start", h.StartTrip)
			trips.PATCH("/:id/complete", h.CompleteTrip)
			trips.PATCH("/:id/cancel", h.CancelTrip)
		}
	}
}
