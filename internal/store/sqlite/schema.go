package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are applied in order. All use IF NOT EXISTS.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		name       TEXT PRIMARY KEY,
		pattern    TEXT NOT NULL,
		command    TEXT NOT NULL,
		args       TEXT NOT NULL DEFAULT '[]',
		channel    TEXT NOT NULL DEFAULT '',
		chat       TEXT NOT NULL DEFAULT '',
		state      TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		seq        INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_seq ON jobs(seq)`,
}

// migrate creates or updates the schema to schemaVersion.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}
	return nil
}
