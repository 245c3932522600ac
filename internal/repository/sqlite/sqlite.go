// Package sqlite implements the repository interfaces on SQLite.
//
// The data model is graph-shaped — records are nodes with properties, each
// linked to its owning user — and it maps onto two tables: users, and a
// single records table where the kind is a label column and the properties
// live in a JSON column. Ordering by a property uses json_extract; the
// status update uses json_set. One row per node, the user_id foreign key is
// the ownership edge.
//
// We use modernc.org/sqlite (pure Go, no CGo) so the binary cross-compiles
// without a C toolchain. The blank import registers the driver with
// database/sql under the name "sqlite".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server owns it: created at startup, closed on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
//
// sql.Open only creates the pool manager; the Ping forces a real connection
// so a bad path or permissions problem surfaces at startup, not on the
// first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// With ":memory:" every pool connection gets its own private database,
	// so a second connection would see no schema. Pin the pool to one
	// connection in that case (tests).
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — necessary for a
	// web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The records.user_id
	// reference is what enforces "every record has an existing owner", so
	// it must be on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the store is reachable. The health endpoint uses this to
// report "service unavailable" distinctly from an application bug.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// One table for all record kinds. kind is the node label, fields is the
	// property bag (JSON), user_id is the ownership edge. Every query in
	// record.go filters on (user_id, kind), hence the composite index.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			kind       TEXT NOT NULL,
			fields     TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_records_owner_kind ON records(user_id, kind);
	`)
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	return nil
}
