package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandleWebSocket handles GET /v1/ws. An optional trip_id query parameter
// limits the stream to one trip.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	h.Hub.ServeWS(c.Writer, c.Request)
}
