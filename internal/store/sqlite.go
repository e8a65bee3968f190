package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tabletop/internal/store/migrations"
)

// keptSnapshots bounds how many older snapshots survive a save.
const keptSnapshots = 20

// SQLiteStore persists snapshots and credentials in a SQLite database.
type SQLiteStore struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenSQLite opens the database at path and applies embedded migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the persister and auth
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSnapshot appends a snapshot and prunes old ones.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, version int64, data []byte) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_snapshots (state_version, data, saved_at) VALUES (?, ?, ?)`,
		version, data, s.now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM room_snapshots WHERE id NOT IN (SELECT id FROM room_snapshots ORDER BY id DESC LIMIT ?)`,
		keptSnapshots,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT data FROM room_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

func (s *SQLiteStore) Credential(ctx context.Context, name string) (string, bool, error) {
	var hash string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT hash FROM credentials WHERE name = ?`, name,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load credential %s: %w", name, err)
	}
	return hash, true, nil
}

func (s *SQLiteStore) PutCredential(ctx context.Context, name, hash string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO credentials (name, hash, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		name, hash, s.now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("store credential %s: %w", name, err)
	}
	return nil
}
