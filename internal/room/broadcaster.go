package room

import (
	"tabletop/internal/shared"
)

// Connection is one client as the broadcast engine sees it.
type Connection interface {
	UID() string
	// Open reports whether the transport is ready to send.
	Open() bool
	// Send queues payload without blocking and reports whether it was queued.
	Send(payload []byte) bool
}

// Clients lists the connections a broadcast addresses.
type Clients interface {
	Connections() []Connection
}

// BroadcastOptions tunes a single broadcast.
type BroadcastOptions struct {
	Reason          string
	SkipVersionBump bool
	Delta           *shared.Delta
}

// Broadcast bumps the state version unless told not to, encodes one snapshot
// and sends it to every open connection in clients. Connections that are not
// open are skipped. It returns the number of connections that were sent to.
func (m *Manager) Broadcast(clients []Connection, opts BroadcastOptions) (int, error) {
	if !opts.SkipVersionBump {
		m.state.StateVersion++
	}
	payload, err := m.encodeSnapshot(opts.Reason, opts.Delta)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, c := range clients {
		if c == nil || !c.Open() {
			continue
		}
		if c.Send(payload) {
			sent++
		} else {
			m.log.Debug().Str("uid", c.UID()).Msg("send queue full, snapshot dropped")
		}
	}
	m.telemetry.Record(BroadcastRecord{
		Clients: len(clients),
		Bytes:   len(payload),
		Reason:  opts.Reason,
		Version: m.state.StateVersion,
		At:      m.now(),
	})
	return sent, nil
}

// BroadcastAll broadcasts to every registered connection.
func (m *Manager) BroadcastAll(opts BroadcastOptions) error {
	var clients []Connection
	if m.clients != nil {
		clients = m.clients.Connections()
	}
	_, err := m.Broadcast(clients, opts)
	return err
}
