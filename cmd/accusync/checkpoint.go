package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/accusync/internal/cli"
	"github.com/Veraticus/accusync/internal/storage"
	"github.com/spf13/cobra"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage local database checkpoints",
		Long: `Create, list and delete snapshots of the local database.

A checkpoint is taken automatically before every catalog sync and pattern
deletion. To roll back, stop accusync and copy the snapshot over the
database file.`,
		Example: `  # Snapshot before a large correction session
  accusync checkpoint create --tag before-review

  # List all checkpoints
  accusync checkpoint list`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// openCheckpoints opens the local store and its checkpoint manager.
func openCheckpoints(ctx context.Context) (*storage.SQLiteStorage, *storage.CheckpointManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	manager, err := store.Checkpoints()
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return store, manager, nil
}

// autoCheckpoint snapshots the store before a destructive operation. A
// failed snapshot is logged and the operation goes ahead.
func autoCheckpoint(ctx context.Context, store *storage.SQLiteStorage, operation string) {
	manager, err := store.Checkpoints()
	if err != nil {
		slog.Warn("Skipping automatic checkpoint", "operation", operation, "error", err)
		return
	}
	if _, err := manager.AutoCheckpoint(ctx, operation); err != nil {
		slog.Warn("Automatic checkpoint failed", "operation", operation, "error", err)
	}
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, manager, err := openCheckpoints(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			info, err := manager.Create(ctx, tag, description)
			if err != nil {
				return fmt.Errorf("failed to create checkpoint: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created checkpoint %s (%s)",
				info.ID, formatFileSize(info.FileSize))))
			if info.Description != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Description: %s\n", info.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Checkpoint name (generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, manager, err := openCheckpoints(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			checkpoints, err := manager.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(checkpoints) == 0 {
				_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render("No checkpoints found."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, strings.Join([]string{"NAME", "CREATED", "SIZE", "PATTERNS", "DESIGNS", "DEVICES", "TYPE"}, "\t"))
			for _, cp := range checkpoints {
				typeLabel := "manual"
				if cp.IsAuto {
					typeLabel = "auto"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					cp.ID,
					cp.CreatedAt.Local().Format("2006-01-02 15:04"),
					formatFileSize(cp.FileSize),
					cp.LearnedPatterns,
					cp.CatalogEntries,
					cp.Devices,
					typeLabel)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render("Stored in "+manager.Dir()))
			return nil
		},
	}
}

func deleteCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, manager, err := openCheckpoints(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := manager.Delete(ctx, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted checkpoint "+args[0]))
			return nil
		},
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
