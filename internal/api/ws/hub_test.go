package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tabletop/internal/game"
	"tabletop/internal/room"
	"tabletop/internal/routing"
	"tabletop/internal/shared"
	"tabletop/internal/store"
)

type testServer struct {
	hub  *Hub
	room *room.Manager
	url  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	creds := store.NewMemoryStore()
	authCfg := game.AuthConfig{FallbackPassword: "tabletop", BcryptCost: bcrypt.MinCost}
	auth := game.NewAuthService(creds, authCfg)
	require.NoError(t, auth.Load(context.Background(), authCfg))
	svc := game.NewServices(game.Options{}, auth)

	rm, err := room.NewManager(nil, nil, log, room.Options{})
	require.NoError(t, err)

	router := routing.New(routing.Config{
		Services: svc,
		State:    rm,
		Broadcast: func(reason string, delta *shared.Delta) error {
			return rm.BroadcastAll(room.BroadcastOptions{Reason: reason, Delta: delta})
		},
		Save:   rm.SaveState,
		Logger: log,
	})
	hub := NewHub(router, rm, log, Options{SendBuffer: 16})
	rm.SetClients(hub)
	router.SetPeers(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	engine := gin.New()
	engine.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = rm.Close()
	})

	return &testServer{
		hub:  hub,
		room: rm,
		url:  "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (s *testServer) dial(t *testing.T, uid string) *websocket.Conn {
	t.Helper()
	url := s.url
	if uid != "" {
		url += "?uid=" + uid
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// readUntil returns the first message tagged typ, skipping others.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["t"] == typ {
			return msg
		}
	}
}

func playerUIDs(msg map[string]any) []string {
	state, _ := msg["state"].(map[string]any)
	players, _ := state["players"].([]any)
	var out []string
	for _, p := range players {
		if m, ok := p.(map[string]any); ok {
			out = append(out, m["uid"].(string))
		}
	}
	return out
}

func TestGateDropsMessagesBeforeAuthentication(t *testing.T) {
	s := newTestServer(t)
	uid := uuid.NewString()
	conn := s.dial(t, uid)

	send(t, conn, map[string]any{"t": "add-token", "x": 1, "y": 1})
	send(t, conn, map[string]any{"t": "authenticate", "secret": "tabletop", "name": "Nia"})

	ok := readUntil(t, conn, "auth-ok")
	assert.Equal(t, uid, ok["uid"])

	snap := readUntil(t, conn, "state")
	assert.Equal(t, "player-joined", snap["reason"])
	assert.Equal(t, []string{uid}, playerUIDs(snap))
	state := snap["state"].(map[string]any)
	assert.Empty(t, state["tokens"])
}

func TestGateRejectsWrongSecret(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "")

	send(t, conn, map[string]any{"t": "authenticate", "secret": "wrong"})

	failed := readUntil(t, conn, "auth-failed")
	assert.Equal(t, "Invalid room password.", failed["reason"])
	assert.Eventually(t, func() bool {
		return s.hub.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, s.hub.Connections())
}

func TestAuthenticatedClientsShareBroadcasts(t *testing.T) {
	s := newTestServer(t)
	alice, bob := uuid.NewString(), uuid.NewString()
	a := s.dial(t, alice)
	b := s.dial(t, bob)

	send(t, a, map[string]any{"t": "authenticate", "secret": "tabletop", "name": "Alice"})
	readUntil(t, a, "state")
	send(t, b, map[string]any{"t": "authenticate", "secret": "tabletop", "name": "Bob"})
	readUntil(t, b, "state")

	joined := readUntil(t, a, "state")
	assert.ElementsMatch(t, []string{alice, bob}, playerUIDs(joined))

	send(t, a, map[string]any{"t": "add-token", "x": 2, "y": 3})
	moved := readUntil(t, b, "state")
	assert.Equal(t, "add-token", moved["reason"])
	assert.Len(t, moved["state"].(map[string]any)["tokens"], 1)
	assert.Equal(t, moved["stateVersion"], readUntil(t, a, "state")["stateVersion"])

	require.NoError(t, b.Close())
	left := readUntil(t, a, "state")
	assert.Equal(t, "player-left", left["reason"])
	assert.Eventually(t, func() bool {
		return len(s.hub.Connections()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRTCSignalReachesOnlyTarget(t *testing.T) {
	s := newTestServer(t)
	alice, bob := uuid.NewString(), uuid.NewString()
	a := s.dial(t, alice)
	b := s.dial(t, bob)
	send(t, a, map[string]any{"t": "authenticate", "secret": "tabletop"})
	readUntil(t, a, "auth-ok")
	send(t, b, map[string]any{"t": "authenticate", "secret": "tabletop"})
	readUntil(t, b, "auth-ok")

	send(t, a, map[string]any{"t": "rtc-signal", "target": bob, "signal": map[string]any{"sdp": "offer"}})

	relay := readUntil(t, b, "rtc-signal")
	assert.Equal(t, alice, relay["from"])
	assert.Equal(t, map[string]any{"sdp": "offer"}, relay["signal"])
}

func TestReconnectReplacesConnection(t *testing.T) {
	s := newTestServer(t)
	uid := uuid.NewString()
	first := s.dial(t, uid)
	send(t, first, map[string]any{"t": "authenticate", "secret": "tabletop"})
	readUntil(t, first, "auth-ok")

	second := s.dial(t, uid)
	send(t, second, map[string]any{"t": "authenticate", "secret": "tabletop"})
	readUntil(t, second, "auth-ok")

	assert.Eventually(t, func() bool {
		return s.hub.ConnectionCount() == 1 && len(s.hub.Connections()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var players []string
	s.room.Apply(func() {
		for _, p := range s.room.GetState().Players {
			players = append(players, p.UID)
		}
	})
	assert.Equal(t, []string{uid}, players)
}

func TestReusedUIDDoesNotInheritDM(t *testing.T) {
	s := newTestServer(t)
	uid := uuid.NewString()
	dm := s.dial(t, uid)
	send(t, dm, map[string]any{"t": "authenticate", "secret": "tabletop", "name": "DM"})
	readUntil(t, dm, "auth-ok")
	send(t, dm, map[string]any{"t": "elevate-to-dm", "dmPassword": "dungeon-master"})
	status := readUntil(t, dm, "dm-status")
	require.Equal(t, true, status["isDM"])

	rogue := s.dial(t, uid)
	send(t, rogue, map[string]any{"t": "authenticate", "secret": "tabletop", "name": "Mallory"})
	ok := readUntil(t, rogue, "auth-ok")
	assert.Equal(t, uid, ok["uid"])
	assert.Equal(t, false, ok["isDM"])

	send(t, rogue, map[string]any{"t": "create-npc", "name": "Dragon", "maxHp": 300})
	send(t, rogue, map[string]any{"t": "add-token", "x": 1, "y": 1})
	snap := readUntil(t, rogue, "state")
	for snap["reason"] != "add-token" {
		snap = readUntil(t, rogue, "state")
	}
	state := snap["state"].(map[string]any)
	assert.Empty(t, state["characters"])
	players := state["players"].([]any)
	require.Len(t, players, 1)
	assert.Equal(t, false, players[0].(map[string]any)["isDM"])

	var characters int
	s.room.Apply(func() { characters = len(s.room.GetState().Characters) })
	assert.Zero(t, characters)
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", ConnState(9).String())
}

func TestSnapshotIsValidJSON(t *testing.T) {
	s := newTestServer(t)
	payload, err := s.room.SnapshotJSON()
	require.NoError(t, err)
	assert.True(t, json.Valid(payload))
}
