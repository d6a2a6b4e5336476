package storage

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is bumped whenever the schema below changes shape.
const SchemaVersion = 1

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: requisition tables exist, WAL mode and foreign keys enabled
func InitDB(db *sql.DB) error {
	// WAL is a no-op for :memory: databases, which report "memory".
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS requisition (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL UNIQUE,
		requisition_id TEXT NOT NULL,
		date TEXT NOT NULL,
		department TEXT NOT NULL,
		employee TEXT NOT NULL,
		requirement TEXT NOT NULL,
		category TEXT NOT NULL,
		details TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS requisition_item (
		requisition_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (requisition_id, position),
		FOREIGN KEY (requisition_id) REFERENCES requisition(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var current int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}
	if current < SchemaVersion {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}
	return nil
}
