package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

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
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					remote_id TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					direction TEXT NOT NULL,
					category TEXT NOT NULL,
					note TEXT NOT NULL DEFAULT '',
					date DATETIME NOT NULL,
					photo_ref TEXT NOT NULL DEFAULT '',
					location_full TEXT,
					location_short TEXT,
					latitude REAL,
					longitude REAL,
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_category ON transactions(category)`,
				`CREATE INDEX idx_transactions_remote_id ON transactions(remote_id)`,

				`CREATE TABLE IF NOT EXISTS scheduled_transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					remote_id TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					direction TEXT NOT NULL,
					category TEXT NOT NULL,
					note TEXT NOT NULL DEFAULT '',
					target_date DATETIME NOT NULL,
					confirmed INTEGER NOT NULL DEFAULT 0,
					reminder_sent INTEGER NOT NULL DEFAULT 0,
					expiration_notified INTEGER NOT NULL DEFAULT 0,
					photo_ref TEXT NOT NULL DEFAULT '',
					location_full TEXT,
					location_short TEXT,
					latitude REAL,
					longitude REAL,
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_scheduled_target_date ON scheduled_transactions(target_date)`,
				`CREATE INDEX idx_scheduled_remote_id ON scheduled_transactions(remote_id)`,

				`CREATE TABLE IF NOT EXISTS budget_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					remote_id TEXT NOT NULL DEFAULT '',
					kind TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL DEFAULT 0,
					limit_percent REAL NOT NULL DEFAULT 0,
					synced INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
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
		Description: "Enforce a single general monthly budget rule",
		Up: func(tx *sql.Tx) error {
			// Keep only the newest general rule before adding the index.
			queries := []string{
				`DELETE FROM budget_rules
				 WHERE kind = 'general_monthly'
				   AND id NOT IN (
					SELECT id FROM budget_rules
					WHERE kind = 'general_monthly'
					ORDER BY id DESC LIMIT 1
				 )`,
				`CREATE UNIQUE INDEX idx_budget_rules_general
				 ON budget_rules(kind) WHERE kind = 'general_monthly'`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index unsynced records for login reconciliation",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_synced ON transactions(synced) WHERE synced = 0`,
				`CREATE INDEX IF NOT EXISTS idx_scheduled_synced ON scheduled_transactions(synced) WHERE synced = 0`,
				`CREATE INDEX IF NOT EXISTS idx_budget_rules_synced ON budget_rules(synced) WHERE synced = 0`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
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

		slog.Info("Applied migration",
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
