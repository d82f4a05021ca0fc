// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package kvstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for database/sql
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Dialect is a supported SQL backend.
type Dialect string

// Supported dialects.
const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// gooseMu serializes migrations; goose keeps its base FS and dialect in
// package globals.
var gooseMu sync.Mutex

// SQLStore keeps entries in a kv_entries table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	upsert  string
	closed  atomic.Bool
}

// OpenSQLite opens (creating if needed) a SQLite database file and migrates it.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// single writer; the store is tiny
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return NewSQLStore(db, DialectSQLite)
}

// OpenMySQL connects to MySQL with the given DSN and migrates it.
func OpenMySQL(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return NewSQLStore(db, DialectMySQL)
}

// NewSQLStore wraps an open database, runs migrations and verifies the
// connection. The store owns db from here on.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := Migrate(db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLStore{db: db, dialect: dialect}
	switch dialect {
	case DialectMySQL:
		s.upsert = `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value), updated_at = CURRENT_TIMESTAMP`
	default:
		s.upsert = `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)
			ON CONFLICT(entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP`
	}
	return s, nil
}

// Migrate runs all pending migrations for the dialect.
func Migrate(db *sql.DB, dialect Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	defer goose.SetBaseFS(nil)

	var gooseDialect, dir string
	switch dialect {
	case DialectSQLite:
		gooseDialect, dir = "sqlite3", "migrations/sqlite"
	case DialectMySQL:
		gooseDialect, dir = "mysql", "migrations/mysql"
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Get retrieves a value.
func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_value FROM kv_entries WHERE entry_key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set upserts a value.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, s.upsert, key, value)
	return err
}

// Delete removes a key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE entry_key = ?`, key)
	return err
}

// Has checks if a key exists.
func (s *SQLStore) Has(ctx context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv_entries WHERE entry_key = ?`, key).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.db.Close()
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
