package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tabletop/internal/protocol"
)

// ConnState is the transport readiness of a connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is one client websocket. Reads and writes each run on their own
// goroutine; outbound frames go through a bounded queue.
type Conn struct {
	hub   *Hub
	ws    *websocket.Conn
	uid   string
	send  chan []byte
	state atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(h *Hub, ws *websocket.Conn, uid string) *Conn {
	c := &Conn{
		hub:  h,
		ws:   ws,
		uid:  uid,
		send: make(chan []byte, h.opts.SendBuffer),
		done: make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Conn) UID() string {
	return c.uid
}

func (c *Conn) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Conn) Open() bool {
	return c.State() == StateOpen
}

// Send queues payload for the writer. A full queue drops the frame so a slow
// client never holds up the room.
func (c *Conn) Send(payload []byte) bool {
	if !c.Open() {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
	})
}

func (c *Conn) readPump() {
	defer func() {
		c.close()
		c.hub.enqueue(event{conn: c, closed: true})
	}()
	c.ws.SetReadLimit(c.hub.opts.MaxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("uid", c.uid).Msg("read websocket")
			}
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			c.hub.log.Debug().Err(err).Str("uid", c.uid).Msg("invalid frame")
			continue
		}
		if !c.hub.enqueue(event{conn: c, msg: msg}) {
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.hub.opts.WriteWait))
			return
		}
	}
}
