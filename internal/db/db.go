// Package db provides the SQLite connection and schema for glowd.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Append-only history of rendered light requests and slider
	// transitions. Timestamps are unix seconds.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS light_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			at           INTEGER NOT NULL,
			request_id   TEXT NOT NULL,
			kind         TEXT NOT NULL,
			light_type   TEXT NOT NULL DEFAULT '',
			color        INTEGER NOT NULL DEFAULT 0,
			flash        TEXT NOT NULL DEFAULT '',
			flash_on_ms  INTEGER NOT NULL DEFAULT 0,
			flash_off_ms INTEGER NOT NULL DEFAULT 0,
			slider_open  INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_light_events_at ON light_events(at);
		CREATE INDEX IF NOT EXISTS idx_light_events_kind_at ON light_events(kind, at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create light_events table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
