package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tabletop/internal/shared"
	"tabletop/internal/store"
)

const saveTimeout = 10 * time.Second

// Store persists encoded room state.
type Store interface {
	SaveSnapshot(ctx context.Context, version int64, data []byte) error
	LatestSnapshot(ctx context.Context) ([]byte, error)
}

// Restore replaces the state with the most recently saved one, keeping its
// version. An empty store leaves the state untouched.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	data, err := m.store.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	var restored shared.RoomState
	if err := json.Unmarshal(data, &restored); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	restored.Normalize()
	// connections did not survive the restart
	restored.SelectedObjects = map[string]string{}
	for i := range restored.Players {
		restored.Players[i].IsDM = false
	}

	m.mu.Lock()
	*m.state = restored
	m.mu.Unlock()
	m.log.Info().Int64("state_version", restored.StateVersion).Msg("room state restored")
	return nil
}

type pendingSave struct {
	version int64
	data    []byte
}

// persister writes snapshots on its own goroutine. A save queued while
// another is pending replaces it.
type persister struct {
	store Store
	log   zerolog.Logger

	mu      sync.Mutex
	pending *pendingSave
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newPersister(s Store, log zerolog.Logger) *persister {
	p := &persister{
		store: s,
		log:   log,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(version int64, data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending = &pendingSave{version: version, data: data}
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.stop:
			p.flush()
			return
		}
	}
}

func (p *persister) flush() {
	p.mu.Lock()
	next := p.pending
	p.pending = nil
	p.mu.Unlock()
	if next == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := p.store.SaveSnapshot(ctx, next.version, next.data); err != nil {
		p.log.Error().Err(err).Int64("state_version", next.version).Msg("save room state")
	}
}

func (p *persister) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.stop)
	<-p.done
	return nil
}
