package room

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop/internal/shared"
	"tabletop/internal/store"
)

func TestSaveCloseRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()

	m, err := NewManager(nil, mem, zerolog.Nop(), Options{})
	require.NoError(t, err)
	m.Apply(func() {
		s := m.GetState()
		s.Players = append(s.Players, shared.Player{UID: "a", Name: "Alice", IsDM: true, StatusEffects: []string{}})
		s.SelectedObjects["a"] = "token-1"
		s.StateVersion = 7
	})
	require.NoError(t, m.SaveState())
	require.NoError(t, m.Close())
	assert.Equal(t, int64(7), mem.SnapshotVersion())

	assert.ErrorIs(t, m.SaveState(), ErrClosed)

	fresh, err := NewManager(nil, mem, zerolog.Nop(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fresh.Close() })
	require.NoError(t, fresh.Restore(ctx))

	s := fresh.GetState()
	assert.Equal(t, int64(7), s.StateVersion)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "Alice", s.Players[0].Name)
	assert.False(t, s.Players[0].IsDM)
	assert.Empty(t, s.SelectedObjects)
}

func TestRestoreEmptyStore(t *testing.T) {
	m := newTestManager(t, store.NewMemoryStore())
	before := m.GetState()

	require.NoError(t, m.Restore(context.Background()))

	assert.Same(t, before, m.GetState())
	assert.Equal(t, int64(0), m.GetState().StateVersion)
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	mem := store.NewMemoryStore()
	require.NoError(t, mem.SaveSnapshot(context.Background(), 1, []byte("{not json")))
	m := newTestManager(t, mem)

	err := m.Restore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode snapshot")
}

func TestSaveStateKeepsLatest(t *testing.T) {
	mem := store.NewMemoryStore()
	m, err := NewManager(nil, mem, zerolog.Nop(), Options{})
	require.NoError(t, err)

	for v := int64(1); v <= 20; v++ {
		m.Apply(func() { m.GetState().StateVersion = v })
		require.NoError(t, m.SaveState())
	}
	require.NoError(t, m.Close())

	data, err := mem.LatestSnapshot(context.Background())
	require.NoError(t, err)
	var saved shared.RoomState
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, int64(20), saved.StateVersion)
}

func TestSaveStateWithoutStore(t *testing.T) {
	m := newTestManager(t, nil)
	assert.NoError(t, m.SaveState())
	assert.NoError(t, m.Restore(context.Background()))
}
