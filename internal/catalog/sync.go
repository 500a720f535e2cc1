package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/accusync/internal/model"
)

// Source supplies the authoritative design and device records.
// remote.Client implements it.
type Source interface {
	Designs(ctx context.Context) ([]model.CatalogEntry, error)
	Devices(ctx context.Context) ([]model.DeviceAttribute, error)
}

// Writer upserts records into the local store.
type Writer interface {
	UpsertCatalogEntry(ctx context.Context, entry *model.CatalogEntry) error
	UpsertDeviceAttribute(ctx context.Context, d *model.DeviceAttribute) error
}

// SyncResult counts the outcome of one synchronization.
type SyncResult struct {
	Fetched int
	Synced  int
	Errors  int
}

// Syncer copies the remote design master into the local catalog.
type Syncer struct {
	source Source
	dest   Writer
}

// NewSyncer creates a syncer.
func NewSyncer(source Source, dest Writer) *Syncer {
	return &Syncer{source: source, dest: dest}
}

// SyncDesigns upserts every remote design by design number.
// A failed fetch is returned; failed rows are counted and skipped.
func (s *Syncer) SyncDesigns(ctx context.Context) (*SyncResult, error) {
	designs, err := s.source.Designs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch designs: %w", err)
	}

	result := &SyncResult{Fetched: len(designs)}
	for i := range designs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.dest.UpsertCatalogEntry(ctx, &designs[i]); err != nil {
			result.Errors++
			slog.Warn("Failed to sync design", "design_number", designs[i].DesignNumber, "error", err)
			continue
		}
		result.Synced++
	}

	slog.Info("Synced designs", "fetched", result.Fetched, "synced", result.Synced, "errors", result.Errors)
	return result, nil
}

// SyncDevices upserts every remote device attribute by brand and device name.
func (s *Syncer) SyncDevices(ctx context.Context) (*SyncResult, error) {
	devices, err := s.source.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}

	result := &SyncResult{Fetched: len(devices)}
	for i := range devices {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.dest.UpsertDeviceAttribute(ctx, &devices[i]); err != nil {
			result.Errors++
			slog.Warn("Failed to sync device",
				"brand", devices[i].Brand,
				"device", devices[i].DeviceName,
				"error", err)
			continue
		}
		result.Synced++
	}

	slog.Info("Synced devices", "fetched", result.Fetched, "synced", result.Synced, "errors", result.Errors)
	return result, nil
}
