// Package sqlite implements the persistence repositories on an embedded
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// Storage wraps a SQLite connection and implements the persistence
// repositories. One Storage serves every repository interface.
type Storage struct {
	db *sql.DB
}

// Open opens the database at the given DSN and applies connection settings.
// The schema is not created until Migrate is called.
func Open(dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// The driver serializes access per connection; a single connection keeps
	// SQLITE_BUSY out of concurrent request paths.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection is usable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	location   TEXT NOT NULL DEFAULT '',
	capacity   INTEGER NOT NULL CHECK (capacity > 0),
	equipment  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL REFERENCES resources(id),
	title       TEXT NOT NULL,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	organizer   TEXT NOT NULL,
	attendees   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_resource_status
	ON events(resource_id, status);

CREATE TABLE IF NOT EXISTS org_entities (
	entity_type   TEXT NOT NULL CHECK (entity_type IN ('department', 'course', 'society')),
	id            INTEGER NOT NULL,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	department_id INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (entity_type, id)
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	role_scope    TEXT NOT NULL,
	department_id INTEGER NOT NULL DEFAULT 0,
	scope_id      INTEGER NOT NULL DEFAULT 0
);
`

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}
	return nil
}

// mapError translates driver errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(message, "CHECK constraint failed"),
		strings.Contains(message, "FOREIGN KEY constraint failed"),
		strings.Contains(message, "NOT NULL constraint failed"):
		return persistence.ErrConstraintViolation
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// Attendee and equipment lists are stored as one newline-joined column. None
// of the stored values may contain newlines.
func joinList(values []string) string {
	return strings.Join(values, "\n")
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, "\n")
}
