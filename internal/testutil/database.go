// Package testutil provides test databases seeded with catalog and device fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/storage"
)

// TestDB is a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Catalog     []model.CatalogEntry
	Devices     []model.DeviceAttribute
}

// SetupTestDB creates an empty migrated in-memory database.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithFixtures creates a database seeded with CatalogFixture and DeviceFixture.
func SetupTestDBWithFixtures(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{
		Catalog: CatalogFixture(),
		Devices: DeviceFixture(),
	})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, t: t}
	db.SeedCatalog(opts.Catalog...)
	db.SeedDevices(opts.Devices...)

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// SeedCatalog upserts catalog entries, defaulting the status to active.
func (db *TestDB) SeedCatalog(entries ...model.CatalogEntry) {
	db.t.Helper()
	for _, e := range entries {
		if e.Status == "" {
			e.Status = model.CatalogActive
		}
		if err := db.Storage.UpsertCatalogEntry(context.Background(), &e); err != nil {
			db.t.Fatalf("failed to seed catalog entry %q: %v", e.DesignNumber, err)
		}
	}
}

// SeedDevices upserts device attributes.
func (db *TestDB) SeedDevices(devices ...model.DeviceAttribute) {
	db.t.Helper()
	for _, d := range devices {
		if err := db.Storage.UpsertDeviceAttribute(context.Background(), &d); err != nil {
			db.t.Fatalf("failed to seed device %q: %v", d.DeviceName, err)
		}
	}
}
