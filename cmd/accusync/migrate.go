package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/accusync/internal/cli"
	"github.com/Veraticus/accusync/internal/config"
	"github.com/Veraticus/accusync/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the local database schema to the latest version.

Every other command migrates on open; this command exists to do it
ahead of time or to check the schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dbPath := config.ExpandPath(cfg.Database.Path)

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		msg := fmt.Sprintf("Schema version %d of %d", current, storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			_, _ = fmt.Fprintln(out, cli.FormatWarning(msg+" (run 'accusync migrate')"))
		} else {
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(msg))
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database migrated from version %d to %d",
		current, storage.ExpectedSchemaVersion)))
	return nil
}
