// Package store persists room snapshots and password hashes.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// MemoryStore keeps the latest snapshot and credentials in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	version     int64
	snapshot    []byte
	credentials map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: map[string]string{},
	}
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, version int64, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version = version
	m.snapshot = buf
	return nil
}

func (m *MemoryStore) LatestSnapshot(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	buf := make([]byte, len(m.snapshot))
	copy(buf, m.snapshot)
	return buf, nil
}

// SnapshotVersion returns the state version of the latest snapshot.
func (m *MemoryStore) SnapshotVersion() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *MemoryStore) Credential(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, ok := m.credentials[name]
	return hash, ok, nil
}

func (m *MemoryStore) PutCredential(_ context.Context, name, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[name] = hash
	return nil
}
