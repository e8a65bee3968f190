package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tabletop/internal/protocol"
	"tabletop/internal/room"
	"tabletop/internal/routing"
)

const inboxSize = 256

// Options tunes connection handling.
type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 1 << 20
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	return o
}

type event struct {
	conn   *Conn
	msg    protocol.Message
	closed bool
}

// Hub owns every client connection. Readers push frames into a single inbox
// which Run drains one message at a time, so handlers never interleave.
type Hub struct {
	router MessageRouter
	room   RoomManager
	opts   Options
	log    zerolog.Logger

	mu            sync.RWMutex
	conns         map[*Conn]struct{}
	byUID         map[string]*Conn
	authenticated map[string]*Conn

	inbox chan event
	done  chan struct{}
}

func NewHub(router MessageRouter, rm RoomManager, log zerolog.Logger, opts Options) *Hub {
	return &Hub{
		router:        router,
		room:          rm,
		opts:          opts.withDefaults(),
		log:           log.With().Str("module", "ws").Logger(),
		conns:         make(map[*Conn]struct{}),
		byUID:         make(map[string]*Conn),
		authenticated: make(map[string]*Conn),
		inbox:         make(chan event, inboxSize),
		done:          make(chan struct{}),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWS upgrades the request and starts the connection pumps. A valid
// uid query parameter lets a reconnecting client keep its identity.
func (h *Hub) HandleWS(c *gin.Context) {
	uid := c.Query("uid")
	if _, err := uuid.Parse(uid); err != nil {
		uid = uuid.NewString()
	}

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade websocket")
		return
	}

	conn := newConn(h, wsConn, uid)
	h.register(conn)
	h.log.Info().Str("uid", uid).Msg("connection opened")

	go conn.writePump()
	go conn.readPump()
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	prev := h.byUID[c.uid]
	h.conns[c] = struct{}{}
	h.byUID[c.uid] = c
	c.state.Store(int32(StateOpen))
	h.mu.Unlock()
	if prev != nil {
		// same uid reconnected; the old socket is stale
		prev.close()
	}
}

// enqueue hands an event to the dispatcher. It reports false once the hub
// has stopped.
func (h *Hub) enqueue(ev event) bool {
	select {
	case h.inbox <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Run processes inbound events until ctx is done, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.closeAll()
	}()
	for {
		select {
		case ev := <-h.inbox:
			h.room.Apply(func() {
				h.dispatch(ctx, ev)
			})
		case <-ctx.Done():
			return
		}
	}
}

// dispatch is the authentication gate.
func (h *Hub) dispatch(ctx context.Context, ev event) {
	c := ev.conn
	if ev.closed {
		h.disconnect(c)
		return
	}
	if c.State() == StateClosed {
		return
	}
	msg := ev.msg
	switch {
	case msg.T == protocol.TypeAuthenticate:
		h.authenticate(ctx, c, msg)
	case !h.isAuthenticated(c):
		h.log.Warn().
			Str("uid", c.uid).
			Str("type", string(msg.T)).
			Msg("message dropped before authentication")
	case protocol.IsAuthFamily(msg.T):
		if err := h.router.RouteAuth(ctx, msg, c.uid); err != nil {
			h.log.Error().Err(err).Str("uid", c.uid).Msg("handle auth message")
		}
	default:
		if err := h.router.Route(ctx, msg, c.uid); err != nil {
			h.log.Error().Err(err).Str("uid", c.uid).Msg("handle message")
		}
	}
}

// authenticate marks the connection before the router runs so the join
// broadcast reaches it, and unmarks it again if the secret is rejected.
func (h *Hub) authenticate(ctx context.Context, c *Conn, msg protocol.Message) {
	was := h.isAuthenticated(c)
	h.setAuthenticated(c, true)
	ok, err := h.router.Authenticate(ctx, msg, c.uid)
	if !ok && !was {
		h.setAuthenticated(c, false)
	}
	if err != nil {
		h.log.Error().Err(err).Str("uid", c.uid).Msg("handle authenticate")
	}
	if ok {
		h.log.Info().Str("uid", c.uid).Msg("connection authenticated")
	}
}

func (h *Hub) disconnect(c *Conn) {
	c.close()
	h.mu.Lock()
	delete(h.conns, c)
	current := h.byUID[c.uid] == c
	if current {
		delete(h.byUID, c.uid)
	}
	wasAuthenticated := h.authenticated[c.uid] == c
	if wasAuthenticated {
		delete(h.authenticated, c.uid)
	}
	h.mu.Unlock()

	h.log.Info().Str("uid", c.uid).Msg("connection closed")
	if !current || !wasAuthenticated {
		return
	}
	if err := h.router.Disconnect(c.uid); err != nil {
		h.log.Error().Err(err).Str("uid", c.uid).Msg("handle disconnect")
	}
}

func (h *Hub) isAuthenticated(c *Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.authenticated[c.uid] == c
}

func (h *Hub) setAuthenticated(c *Conn, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ok {
		h.authenticated[c.uid] = c
		return
	}
	if h.authenticated[c.uid] == c {
		delete(h.authenticated, c.uid)
	}
}

// Connections returns the authenticated connections; only they receive
// room snapshots.
func (h *Hub) Connections() []room.Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]room.Connection, 0, len(h.authenticated))
	for _, c := range h.authenticated {
		out = append(out, c)
	}
	return out
}

// Peer looks up the current connection for uid.
func (h *Hub) Peer(uid string) (routing.Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.byUID[uid]
	if !ok {
		return nil, false
	}
	return c, true
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.close()
	}
}
