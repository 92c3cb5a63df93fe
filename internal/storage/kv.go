// Package storage persists application state in a per-key JSON value store
// backed by SQLite. Writes are synchronous whole-value replacements; the
// last writer for a key always wins. The repositories in this package keep
// an in-memory mirror of their key and write it back on every mutation.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ChangeNotifier is told about every successful write so other processes
// can resync. A nil notifier disables broadcasting.
type ChangeNotifier interface {
	StoreChanged(ctx context.Context, key string, rev int64)
}

// Store is the synchronous key-value store.
type Store struct {
	db       *sql.DB
	notifier ChangeNotifier
}

// Open creates the database file if needed, runs migrations and returns a
// ready store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// SetNotifier installs the change broadcaster. Must be called before the
// store is shared across goroutines.
func (s *Store) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the raw JSON stored under key, or found=false when absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read key %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set serializes value to JSON and writes it under key, replacing any prior
// value. Failures are logged and swallowed: persistence is best-effort and
// never aborts the caller's operation.
func (s *Store) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to serialize value for store", "key", key, "error", err)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, rev) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			rev = kv.rev + 1,
			updated_at = CURRENT_TIMESTAMP`,
		key, string(data))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to write key to store", "key", key, "error", err)
		return
	}

	rev := s.Rev(ctx, key)
	slog.DebugContext(ctx, "Store key written", "key", key, "rev", rev, "bytes", len(data))

	if s.notifier != nil {
		s.notifier.StoreChanged(ctx, key, rev)
	}
}

// Rev returns the write revision of a key, 0 when the key is absent or the
// lookup fails.
func (s *Store) Rev(ctx context.Context, key string) int64 {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT rev FROM kv WHERE key = ?`, key).Scan(&rev)
	if err != nil && err != sql.ErrNoRows {
		slog.ErrorContext(ctx, "Failed to read key revision", "key", key, "error", err)
	}
	return rev
}

// GetOr reads and decodes the value under key, falling back to def when the
// key is absent or its value does not parse. Errors are logged, never
// returned: a corrupt value degrades to the default.
func GetOr[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "Store read failed, using default", "key", key, "error", err)
		return def
	}
	if !found {
		return def
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "Stored value does not parse, using default", "key", key, "error", err)
		return def
	}
	return out
}
