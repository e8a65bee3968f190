package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tabletop/internal/api/ws"
	"tabletop/internal/room"
)

func SetupRouter(rm *room.Manager, hub *ws.Hub, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// WebSocket for live room updates
	r.GET("/ws", hub.HandleWS)

	r.GET("/healthz", HealthHandler())

	// --- ROOM ENDPOINTS ---
	r.GET("/api/state", StateHandler(rm, log))

	metrics := NewMetricsHandler(rm.Telemetry(), hub)
	r.GET("/api/metrics", metrics.GetMetricsHandler)

	return r
}
