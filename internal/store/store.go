// Package store persists contacts, notes, tag associations, and template
// versions in SQLite behind the Repository interface.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	first_name      TEXT NOT NULL DEFAULT '',
	attributes      TEXT NOT NULL DEFAULT '{}',
	briefing_text   TEXT NOT NULL DEFAULT '',
	last_contact_at INTEGER,
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id               TEXT PRIMARY KEY,
	contact_id       TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	content          TEXT NOT NULL DEFAULT '',
	is_interaction   INTEGER NOT NULL DEFAULT 0,
	interaction_date INTEGER,
	created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_contact ON notes(contact_id);

CREATE TABLE IF NOT EXISTS tags (
	owner_kind     TEXT NOT NULL,
	owner_id       TEXT NOT NULL,
	name           TEXT NOT NULL,
	frequency_days INTEGER,
	last_contact   INTEGER,
	created_at     INTEGER NOT NULL,
	PRIMARY KEY (owner_kind, owner_id, name)
);

CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name);

CREATE TABLE IF NOT EXISTS template_versions (
	version    INTEGER PRIMARY KEY,
	categories TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// DB wraps a sql.DB with repository operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Timestamps are stored as UTC unix milliseconds.

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func toMillisPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromMillisPtr(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
