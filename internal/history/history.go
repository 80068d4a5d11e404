// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite ledger of documents fed to the ingestion
// endpoint so later runs can skip them.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Entry is one fed document.
type Entry struct {
	Key    string    `json:"key" yaml:"key"`
	RunID  string    `json:"run_id" yaml:"run_id"`
	Topic  string    `json:"topic" yaml:"topic"`
	Source string    `json:"source" yaml:"source"`
	Ref    string    `json:"ref" yaml:"ref"`
	Chunks int       `json:"chunks" yaml:"chunks"`
	FedAt  time.Time `json:"fed_at" yaml:"fed_at"`
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and applying pending schema migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate brings the schema up to the latest embedded migration.
func (s *Store) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	drv, err := msqlite.WithInstance(s.db, &msqlite.Config{})
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	// m.Close would close s.db through the driver.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Seen reports whether a document with key has been fed before.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM fed WHERE key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying history: %w", err)
	}
	return n > 0, nil
}

// Record stores e, replacing any earlier entry with the same key. A zero
// FedAt is set to the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Key == "" {
		return fmt.Errorf("history entry has no key")
	}
	if e.FedAt.IsZero() {
		e.FedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fed (key, run_id, topic, source, ref, chunks, fed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.RunID, e.Topic, e.Source, e.Ref, e.Chunks, e.FedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.Key, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, run_id, topic, source, ref, chunks, fed_at
		 FROM fed ORDER BY fed_at DESC, key LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var fedAt string
		if err := rows.Scan(&e.Key, &e.RunID, &e.Topic, &e.Source, &e.Ref, &e.Chunks, &fedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, fedAt); err == nil {
			e.FedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of recorded documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM fed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}
