package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"lacuna/internal/config"
)

// ErrBatchOpen is returned when a second batch-write is begun before the
// first one ends. The batch-write mode is single-owner.
var ErrBatchOpen = errors.New("batch write already open")

// ErrNoBatch is returned when EndBatch is called without an open batch.
var ErrNoBatch = errors.New("no batch write open")

// Store manages local catalog persistence backed by SQLite.
//
// All operations are serialized by an internal mutex. During a batch
// write every statement runs on one long transaction; concurrent analyzer
// goroutines therefore interleave safely on the shared connection.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	tx   *sql.Tx
	path string
}

// Open initializes or connects to the library database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close ends any open batch write and closes the database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		_ = s.tx.Commit()
		s.tx = nil
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginBatch opens the batch-write mode: one long transaction that
// coalesces disk synchronization across many writes. Nested batches are
// rejected.
func (s *Store) BeginBatch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrBatchOpen
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch write: %w", err)
	}
	s.tx = tx
	return nil
}

// EndBatch commits the batch-write transaction.
func (s *Store) EndBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoBatch
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit batch write: %w", err)
	}
	return nil
}

// Checkpoint forces accumulated batch writes to durable storage: it
// commits the open transaction, passively checkpoints the WAL, and
// reopens the transaction. A crash after Checkpoint loses nothing written
// before it. Outside batch mode only the WAL checkpoint runs.
func (s *Store) Checkpoint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inBatch := s.tx != nil
	if inBatch {
		if err := s.tx.Commit(); err != nil {
			s.tx = nil
			return fmt.Errorf("commit checkpoint: %w", err)
		}
		s.tx = nil
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	if !inBatch {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reopen batch write: %w", err)
	}
	s.tx = tx
	return nil
}

// InBatch reports whether a batch write is currently open.
func (s *Store) InBatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// dbtx is the common surface of *sql.DB and *sql.Tx the store needs.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the open batch transaction when present so batch writes
// and reads observe each other. Caller must hold s.mu.
func (s *Store) conn() dbtx {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Setting returns the stored value for key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	row := s.conn().QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn().ExecContext(
		ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
