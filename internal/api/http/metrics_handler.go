package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletop/internal/room"
)

// ConnectionCounter reports how many sockets are registered.
type ConnectionCounter interface {
	ConnectionCount() int
}

type MetricsHandler struct {
	telemetry *room.Telemetry
	conns     ConnectionCounter
}

func NewMetricsHandler(t *room.Telemetry, conns ConnectionCounter) *MetricsHandler {
	return &MetricsHandler{telemetry: t, conns: conns}
}

// GetMetricsHandler returns recent broadcast telemetry
// @Summary Broadcast telemetry
// @Description Returns the most recent broadcasts with client count, payload size and reason
// @Tags System
// @Produce json
// @Success 200 {object} MetricsResponse
// @Router /api/metrics [get]
func (h *MetricsHandler) GetMetricsHandler(c *gin.Context) {
	resp := MetricsResponse{Broadcasts: h.telemetry.Recent()}
	if h.conns != nil {
		resp.Connections = h.conns.ConnectionCount()
	}
	c.JSON(http.StatusOK, resp)
}
