// Package srstore persists spaced-repetition cards, decks, and note-deck
// links in SQLite. Scheduling fields are stored verbatim; interval and due
// transitions are computed by the plugin's scheduler, not here.
package srstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so deck resolution helpers can run inside or outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a sql.DB with card/deck operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the spaced-repetition database, applies the
// schema, backfills legacy columns, seeds meta defaults, and ensures the
// "default" deck exists. Every step is idempotent: a failed open leaves no
// partially visible state and a later call retries cleanly.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("srstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("srstore: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("srstore: apply schema: %w", err)
	}
	if err := migrateDecks(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := ensureMetaDefaults(conn); err != nil {
		conn.Close()
		return nil, err
	}
	s := &Store{conn: conn}
	if _, err := ensureDeck(conn, DefaultDeckID, DefaultDeckName); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// begin starts a transaction. Callers must either Commit or rely on the
// deferred Rollback, which is a no-op after a successful commit.
func (s *Store) begin() (*sql.Tx, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("srstore: begin tx: %w", err)
	}
	return tx, nil
}
