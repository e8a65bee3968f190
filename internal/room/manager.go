// Package room owns the authoritative room state: it versions and fans out
// snapshots, records broadcast telemetry and hands state to storage.
package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"tabletop/internal/protocol"
	"tabletop/internal/shared"
)

// ErrClosed is returned by SaveState after Close.
var ErrClosed = errors.New("room manager is closed")

// Options tunes a Manager.
type Options struct {
	// Meter records broadcast instruments. The global meter is used when nil.
	Meter metric.Meter
	// TelemetrySize bounds the in-memory broadcast history.
	TelemetrySize int
	Now           func() time.Time
}

// Manager owns the single RoomState. All mutation happens inside Apply so
// that one message is handled to completion before the next starts.
type Manager struct {
	mu      sync.Mutex
	state   *shared.RoomState
	clients Clients

	store     Store
	persist   *persister
	telemetry *Telemetry
	now       func() time.Time
	log       zerolog.Logger
}

func NewManager(state *shared.RoomState, store Store, log zerolog.Logger, opts Options) (*Manager, error) {
	if state == nil {
		state = shared.NewRoomState()
	}
	state.Normalize()
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log = log.With().Str("module", "room").Logger()
	tel, err := NewTelemetry(opts.Meter, opts.TelemetrySize)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		state:     state,
		store:     store,
		telemetry: tel,
		now:       now,
		log:       log,
	}
	if store != nil {
		m.persist = newPersister(store, log)
	}
	return m, nil
}

// SetClients registers the source of connections used by BroadcastAll.
func (m *Manager) SetClients(c Clients) {
	m.clients = c
}

// Apply runs fn with exclusive access to the state.
func (m *Manager) Apply(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// GetState returns the live state, not a copy. Callers outside Apply must
// not touch it while messages are being handled.
func (m *Manager) GetState() *shared.RoomState {
	return m.state
}

// SnapshotJSON encodes the current state as a snapshot frame without bumping
// the version.
func (m *Manager) SnapshotJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.encodeSnapshot("", nil)
}

func (m *Manager) encodeSnapshot(reason string, delta *shared.Delta) ([]byte, error) {
	payload, err := json.Marshal(shared.Snapshot{
		T:            string(protocol.TypeState),
		State:        m.state,
		StateVersion: m.state.StateVersion,
		Reason:       reason,
		Changed:      delta,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}

// SaveState serialises the state now and persists it in the background.
// Only the most recent pending state is written.
func (m *Manager) SaveState() error {
	if m.persist == nil {
		return nil
	}
	data, err := json.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return m.persist.enqueue(m.state.StateVersion, data)
}

// Telemetry returns the broadcast history recorder.
func (m *Manager) Telemetry() *Telemetry {
	return m.telemetry
}

// Close flushes pending saves and stops the persister.
func (m *Manager) Close() error {
	if m.persist == nil {
		return nil
	}
	return m.persist.close()
}
