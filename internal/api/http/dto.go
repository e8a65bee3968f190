package http

import "tabletop/internal/room"

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// MetricsResponse lists recent broadcasts, oldest first.
type MetricsResponse struct {
	Connections int                    `json:"connections"`
	Broadcasts  []room.BroadcastRecord `json:"broadcasts"`
}
