package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spicewatch/internal/cli"
	"github.com/Veraticus/spicewatch/internal/config"
	"github.com/Veraticus/spicewatch/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Commands that touch the database migrate automatically; use --status to
inspect a database without changing it.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	dbPath := config.DatabasePath(viper.GetViper())

	if status {
		store, err := storage.NewSQLiteStorage(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = store.Close() }()

		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		slog.Info(cli.FormatTitle("Database Migration Status"))
		slog.Info("Database", "path", dbPath, "current", current, "latest", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			slog.Warn(cli.FormatWarning("Migrations pending, run `spicewatch migrate`"))
		}
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath)
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatSuccess("Database migrations completed successfully"))
	return nil
}
