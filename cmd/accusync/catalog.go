package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/accusync/internal/catalog"
	"github.com/Veraticus/accusync/internal/cli"
	"github.com/Veraticus/accusync/internal/common"
	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local design catalog",
		Long: `Copy the remote design and device master into the local catalog so
detection works offline, and report what the local catalog holds.`,
	}

	cmd.AddCommand(catalogSyncCmd())
	cmd.AddCommand(catalogCountCmd())

	return cmd
}

func catalogSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync designs and devices from the remote master",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			designsOnly, _ := cmd.Flags().GetBool("designs-only")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.RemoteEnabled() {
				return common.NewUserError("no remote master configured: set remote.dsn or DATABASE_URL", common.ErrMissingConfig)
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client := openRemote(ctx, cfg)
			if client == nil {
				return fmt.Errorf("%w: remote master", common.ErrStoreUnavailable)
			}
			defer func() { _ = client.Close() }()

			autoCheckpoint(ctx, store, "catalog-sync")
			syncer := catalog.NewSyncer(client, store)
			out := cmd.OutOrStdout()

			designs, err := syncer.SyncDesigns(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Designs: %d fetched, %d synced, %d failed",
				designs.Fetched, designs.Synced, designs.Errors)))

			if designsOnly {
				return nil
			}
			devices, err := syncer.SyncDevices(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Devices: %d fetched, %d synced, %d failed",
				devices.Fetched, devices.Synced, devices.Errors)))
			return nil
		},
	}

	cmd.Flags().Bool("designs-only", false, "Skip the device attribute master")
	return cmd
}

func catalogCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count local catalog entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			active, total, err := store.CountCatalogEntries(ctx)
			if err != nil {
				return err
			}
			devices, err := store.CountDeviceAttributes(ctx)
			if err != nil {
				return err
			}

			slog.Debug("Counted catalog", "database", store.Path())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Local catalog", fmt.Sprintf(
				"Designs: %d active of %d\nDevices: %d", active, total, devices)))
			return nil
		},
	}
}
