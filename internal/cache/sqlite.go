package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a SQLite database file so several processes can share them.
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and prepares the cache table.
// Pass ":memory:" for a throwaway database.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	s := &SQLiteStore{conn: conn, now: buildOptions(opts).now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating cache_entries table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, _, err := s.load(ctx, key)
	return value, err
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, toUnixNano(expiresAt(s.now(), ttl)))
	if err != nil {
		return fmt.Errorf("sqlite: writing %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	_, expires, err := s.load(ctx, key)
	if err != nil {
		return 0, err
	}
	return remaining(s.now(), expires), nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) load(ctx context.Context, key string) ([]byte, time.Time, error) {
	var (
		value   []byte
		expires int64
	)
	err := s.conn.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("sqlite: reading %q: %w", key, err)
	}

	expiresAt := fromUnixNano(expires)
	if expired(s.now(), expiresAt) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, time.Time{}, err
		}
		return nil, time.Time{}, ErrMiss
	}
	return value, expiresAt, nil
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
