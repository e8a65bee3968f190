package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SnapshotSource encodes the current room snapshot.
type SnapshotSource interface {
	SnapshotJSON() ([]byte, error)
}

// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// @Summary Current room state
// @Description Returns the latest snapshot without bumping its version
// @Tags Room
// @Produce json
// @Success 200 {object} shared.Snapshot
// @Router /api/state [get]
func StateHandler(src SnapshotSource, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := src.SnapshotJSON()
		if err != nil {
			log.Error().Err(err).Msg("encode snapshot")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot unavailable"})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
	}
}
