package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion is the user_version the database is migrated to by InitDb.
const CurrentSchemaVersion = 2

// migrations are applied in order; migrations[i] moves the schema from version i to i+1.
// Only append to this list.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS images (
    id TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    payload_hash TEXT,
    position INTEGER NOT NULL DEFAULT 0,
    timestamp INTEGER NOT NULL,
    container TEXT NOT NULL CHECK (container IN ('grid', 'sidebar'))
);`,
	`
CREATE INDEX IF NOT EXISTS idx_images_container_position ON images (container, position);`,
}

type SQLite struct {
	path string
	conn *sql.DB
}

func NewSQLite(path string) *SQLite {
	return &SQLite{
		path: path,
		conn: nil,
	}
}

func (s *SQLite) InitDb() error {
	var err error
	s.conn, err = sql.Open(DriverName, s.path)
	if err != nil {
		return err
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	s.conn.SetMaxOpenConns(1)

	version, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("error reading schema version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		if err := s.migrate(v); err != nil {
			return err
		}
		dbLogger.Info().Int("schema_version", v+1).Msg("Database migrated")
	}

	dbLogger.Info().Str("path", s.path).Int("schema_version", len(migrations)).Msg("Database initialized")
	return nil
}

func (s *SQLite) migrate(from int) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("error starting migration %d: %w", from+1, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrations[from]); err != nil {
		return fmt.Errorf("error applying migration %d: %w", from+1, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return fmt.Errorf("error setting schema version %d: %w", from+1, err)
	}

	return tx.Commit()
}

func (s *SQLite) SchemaVersion() (int, error) {
	var version int
	if err := s.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLite) Query(query string, args ...interface{}) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.Query(query, args...)
}

func (s *SQLite) Exec(query string, args ...interface{}) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.Exec(query, args...)
}

func (s *SQLite) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.conn.BeginTx(ctx, nil)
}
