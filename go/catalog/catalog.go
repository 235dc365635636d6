// Package catalog implements the durable card store: one SQLite database
// holding cards, their state, tags, relations, flags, the append-only review
// log, and per-scheduler recommendations. All mutation of shared state flows
// through this package; callers compose multi-statement writes into a single
// transaction via Begin and the Querier-typed helpers.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for registration side-effect.
)

// TimeLayout is the storage layout of every catalog timestamp: ISO-8601 UTC
// with second precision. Encoded values compare lexically in chronological
// order, which the due-card and deck queries rely on.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime encodes t in the catalog storage layout.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ParseTime decodes a catalog timestamp.
func ParseTime(s string) (time.Time, error) {
	var t, err = time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing catalog timestamp %q: %w", s, err)
	}
	return t, nil
}

// Querier is the subset of *sql.DB and *sql.Tx used by catalog helpers,
// letting each run either standalone or within a caller-owned transaction.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Catalog is an opened card store.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// SQLite is a bit fickle about raced opens of a newly created database,
// often returning "database is locked" errors. Ensure one sql.Open
// completes before the next starts.
var sqliteOpenMu sync.Mutex

// Open opens the catalog database at path, creating it and its parent
// directory as needed. Path may be ":memory:" for tests. The now function
// supplies every timestamp the catalog writes; nil means time.Now.
func Open(path string, now func() time.Time) (*Catalog, error) {
	if now == nil {
		now = time.Now
	}

	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	}

	sqliteOpenMu.Lock()
	db, err := sql.Open("sqlite3", dsn)
	if err == nil {
		err = db.Ping()
	}
	sqliteOpenMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("opening catalog %q: %w", path, err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return &Catalog{db: db, now: now}, nil
}

// DB exposes the underlying handle for read-only queries which don't need
// a transaction.
func (c *Catalog) DB() *sql.DB { return c.db }

// Begin starts a catalog transaction.
func (c *Catalog) Begin() (*sql.Tx, error) {
	var tx, err = c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning catalog transaction: %w", err)
	}
	return tx, nil
}

// Now returns the catalog's current time.
func (c *Catalog) Now() time.Time { return c.now() }

// Close closes the underlying database.
func (c *Catalog) Close() error { return c.db.Close() }

// loadRows runs a query and invokes newFn to allocate scan destinations and
// loadedFn with each scanned row.
func loadRows(
	q Querier,
	query string,
	args []interface{},
	newFn func() []interface{},
	loadedFn func([]interface{}),
) error {
	var rows, err = q.Query(query, args...)
	if err != nil {
		return fmt.Errorf("query(%q): %w", query, err)
	}
	defer rows.Close()

	for rows.Next() {
		var next = newFn()

		if err := rows.Scan(next...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		loadedFn(next)
	}
	return rows.Err()
}
