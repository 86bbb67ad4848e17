package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS rule_keywords (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category TEXT NOT NULL CHECK (category IN ('ignore_if_contains', 'active_keywords', 'passive_keywords')),
					keyword TEXT NOT NULL,
					position INTEGER NOT NULL
				)`,
				`CREATE INDEX idx_rule_keywords_category ON rule_keywords(category, position)`,

				`CREATE TABLE IF NOT EXISTS rule_change_batches (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					recorded_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS rule_changes (
					batch_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					change TEXT NOT NULL,
					PRIMARY KEY (batch_id, position),
					FOREIGN KEY (batch_id) REFERENCES rule_change_batches(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Track when the ruleset was last saved",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS ruleset_state (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					saved_at DATETIME NOT NULL
				)
			`)
			if err != nil {
				return fmt.Errorf("failed to create ruleset_state table: %w", err)
			}

			// Databases that already hold keywords count as saved.
			_, err = tx.Exec(`
				INSERT INTO ruleset_state (id, saved_at)
				SELECT 1, CURRENT_TIMESTAMP
				WHERE EXISTS (SELECT 1 FROM rule_keywords)
			`)
			if err != nil {
				return fmt.Errorf("failed to backfill ruleset_state: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
