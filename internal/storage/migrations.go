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

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Transactions and budgets",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					date TEXT NOT NULL,
					title TEXT NOT NULL,
					title_norm TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					amount TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_owner_date ON transactions(owner_id, date)`,
				`CREATE INDEX idx_transactions_owner_title ON transactions(owner_id, title_norm)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					category TEXT NOT NULL,
					amount_limit TEXT NOT NULL,
					start_date TEXT NOT NULL,
					end_date TEXT NOT NULL,
					active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_budgets_owner ON budgets(owner_id, active)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Anomalies",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS anomalies (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					transaction_id TEXT,
					type TEXT NOT NULL,
					severity TEXT NOT NULL CHECK (severity IN ('LOW', 'MEDIUM', 'HIGH')),
					status TEXT NOT NULL DEFAULT 'PENDING'
						CHECK (status IN ('PENDING', 'REVIEWED', 'DISMISSED', 'CONFIRMED')),
					explanation TEXT NOT NULL,
					evidence TEXT,
					resolution_note TEXT,
					detected_at TEXT NOT NULL,
					resolved_at TEXT
				)`,
				`CREATE INDEX idx_anomalies_owner_status ON anomalies(owner_id, status)`,
				`CREATE INDEX idx_anomalies_detected ON anomalies(detected_at)`,
				`CREATE INDEX idx_anomalies_transaction ON anomalies(transaction_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Append-only audit log",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS audit_log (
					id TEXT PRIMARY KEY,
					timestamp TEXT NOT NULL,
					actor TEXT NOT NULL,
					action TEXT NOT NULL,
					resource_type TEXT NOT NULL,
					resource_id TEXT NOT NULL,
					before_state TEXT,
					after_state TEXT
				)`,
				`CREATE INDEX idx_audit_resource ON audit_log(resource_type, resource_id)`,
				`CREATE TRIGGER audit_log_no_update
				BEFORE UPDATE ON audit_log
				BEGIN
					SELECT RAISE(ABORT, 'audit log entries are immutable');
				END`,
				`CREATE TRIGGER audit_log_no_delete
				BEFORE DELETE ON audit_log
				BEGIN
					SELECT RAISE(ABORT, 'audit log entries are immutable');
				END`,
			)
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
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

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
