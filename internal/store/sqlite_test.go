package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	require.Error(t, err)
}

func TestSQLiteSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "room.db"))

	_, err := s.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, s.SaveSnapshot(ctx, 1, []byte(`{"stateVersion":1}`)))
	require.NoError(t, s.SaveSnapshot(ctx, 2, []byte(`{"stateVersion":2}`)))

	data, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stateVersion":2}`, string(data))
}

func TestSQLitePrunesOldSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "room.db"))

	for v := 1; v <= keptSnapshots+5; v++ {
		require.NoError(t, s.SaveSnapshot(ctx, int64(v), []byte(fmt.Sprintf(`{"stateVersion":%d}`, v))))
	}

	var count int
	require.NoError(t, s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_snapshots`).Scan(&count))
	assert.Equal(t, keptSnapshots, count)

	var oldest int64
	require.NoError(t, s.sqlDB.QueryRowContext(ctx, `SELECT MIN(state_version) FROM room_snapshots`).Scan(&oldest))
	assert.Equal(t, int64(6), oldest)
}

func TestSQLiteCredentials(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "room.db"))
	s.now = func() time.Time { return time.UnixMilli(1000) }

	_, ok, err := s.Credential(ctx, "room")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutCredential(ctx, "room", "hash-1"))
	require.NoError(t, s.PutCredential(ctx, "room", "hash-2"))

	hash, ok, err := s.Credential(ctx, "room")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hash-2", hash)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "room.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.SaveSnapshot(ctx, 3, []byte(`{"stateVersion":3}`)))
	require.NoError(t, first.PutCredential(ctx, "dm", "dm-hash"))
	require.NoError(t, first.Close())

	second := openTestStore(t, path)
	data, err := second.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stateVersion":3}`, string(data))

	hash, ok, err := second.Credential(ctx, "dm")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dm-hash", hash)

	var applied int
	require.NoError(t, second.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+migrationTable).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}
