package http

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop/internal/api/ws"
	"tabletop/internal/room"
	"tabletop/internal/shared"
)

func newTestEngine(t *testing.T) (*gin.Engine, *room.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rm, err := room.NewManager(nil, nil, zerolog.Nop(), room.Options{})
	require.NoError(t, err)
	hub := ws.NewHub(nil, rm, zerolog.Nop(), ws.Options{})
	return SetupRouter(rm, hub, zerolog.Nop()), rm
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := get(engine, "/healthz")

	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStateEndpoint(t *testing.T) {
	engine, rm := newTestEngine(t)
	rm.Apply(func() { rm.GetState().StateVersion = 3 })

	w := get(engine, "/api/state")
	require.Equal(t, nethttp.StatusOK, w.Code)

	var snap shared.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "state", snap.T)
	assert.Equal(t, int64(3), snap.StateVersion)
	assert.Equal(t, int64(3), rm.GetState().StateVersion)
}

type brokenSource struct{}

func (brokenSource) SnapshotJSON() ([]byte, error) { return nil, errors.New("boom") }

func TestStateEndpointFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/api/state", StateHandler(brokenSource{}, zerolog.Nop()))

	w := get(engine, "/api/state")
	assert.Equal(t, nethttp.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestMetricsEndpoint(t *testing.T) {
	engine, rm := newTestEngine(t)
	rm.Apply(func() {
		require.NoError(t, rm.BroadcastAll(room.BroadcastOptions{Reason: "create-npc"}))
		require.NoError(t, rm.BroadcastAll(room.BroadcastOptions{}))
	})

	w := get(engine, "/api/metrics")
	require.Equal(t, nethttp.StatusOK, w.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Connections)
	require.Len(t, resp.Broadcasts, 2)
	assert.Equal(t, "create-npc", resp.Broadcasts[0].Reason)
	assert.Equal(t, "unspecified", resp.Broadcasts[1].Reason)
	assert.Equal(t, int64(2), resp.Broadcasts[1].Version)
}
