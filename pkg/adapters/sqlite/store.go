// Package sqlite persists subscriptions and traces in a SQLite database
// through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	_ "modernc.org/sqlite"
)

var (
	_ ports.SubscriptionStore = (*Store)(nil)
	_ ports.TraceStore        = (*Store)(nil)
)

// Store keeps one row per signal name holding its JSON sequence.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscriptions (
			signal TEXT PRIMARY KEY,
			records TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS traces (
			signal TEXT PRIMARY KEY,
			trace_id TEXT NOT NULL,
			trace TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Save replaces the sequence of a signal name.
func (s *Store) Save(ctx context.Context, signal string, subs []domain.Subscription) error {
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscriptions(signal, records, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(signal) DO UPDATE SET records = excluded.records, updated_at = excluded.updated_at`,
		signal, string(data), now())
	if err != nil {
		return fmt.Errorf("failed to save subscriptions of %s: %w", signal, err)
	}
	return nil
}

// Load retrieves the sequence of a signal name.
func (s *Store) Load(ctx context.Context, signal string) ([]domain.Subscription, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT records FROM subscriptions WHERE signal = ?`, signal).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSignalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions of %s: %w", signal, err)
	}

	var subs []domain.Subscription
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscriptions of %s: %w", signal, err)
	}
	return subs, nil
}

// Delete removes the sequence of a signal name.
func (s *Store) Delete(ctx context.Context, signal string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE signal = ?`, signal); err != nil {
		return fmt.Errorf("failed to delete subscriptions of %s: %w", signal, err)
	}
	return nil
}

// List returns every stored signal name, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT signal FROM subscriptions ORDER BY signal`)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveTrace stores the trace as the last one of its signal name.
func (s *Store) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	data, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO traces(signal, trace_id, trace, recorded_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(signal) DO UPDATE SET trace_id = excluded.trace_id, trace = excluded.trace, recorded_at = excluded.recorded_at`,
		trace.Signal, trace.ID, string(data), now())
	if err != nil {
		return fmt.Errorf("failed to save trace of %s: %w", trace.Signal, err)
	}
	return nil
}

// LoadTrace returns the last trace of a signal name.
func (s *Store) LoadTrace(ctx context.Context, signal string) (*domain.Trace, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT trace FROM traces WHERE signal = ?`, signal).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trace of %s: %w", signal, err)
	}

	var trace domain.Trace
	if err := json.Unmarshal([]byte(raw), &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace of %s: %w", signal, err)
	}
	return &trace, nil
}
