package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/accusync/internal/catalog"
	"github.com/Veraticus/accusync/internal/config"
	"github.com/Veraticus/accusync/internal/engine"
	"github.com/Veraticus/accusync/internal/inventory"
	"github.com/Veraticus/accusync/internal/master"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/pattern"
	"github.com/Veraticus/accusync/internal/remote"
	"github.com/Veraticus/accusync/internal/storage"
	"github.com/spf13/viper"
)

// app holds every opened collaborator of a command.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	inventory *inventory.Store
	remote    *remote.Client
	patterns  map[model.PatternKind]*pattern.Store
	engine    *engine.Engine
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initStorage opens the local store and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.ExpandPath(cfg.Database.Path))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func patternStores(store *storage.SQLiteStorage) map[model.PatternKind]*pattern.Store {
	return map[model.PatternKind]*pattern.Store{
		model.KindDevice:      pattern.NewDeviceStore(store),
		model.KindSize:        pattern.NewSizeStore(store),
		model.KindProductType: pattern.NewProductTypeStore(store),
	}
}

// openRemote connects to the remote master when one is configured. A
// failed connection is logged and the command continues without it.
func openRemote(ctx context.Context, cfg *config.Config) *remote.Client {
	if !cfg.RemoteEnabled() {
		return nil
	}
	client, err := remote.Open(ctx, remote.Config{
		DSN:           cfg.Remote.DSN,
		Timeout:       cfg.Remote.Timeout,
		RatePerSecond: cfg.Remote.RatePerSecond,
		PageSize:      cfg.Remote.PageSize,
	})
	if err != nil {
		slog.Warn("Remote master unavailable, continuing without it", "error", err)
		return nil
	}
	return client
}

// openInventory opens the legacy inventory and checks that its tables can be
// read. Any failure is logged and the command runs without it.
func openInventory(ctx context.Context, path string, timeout time.Duration) *inventory.Store {
	inv, err := inventory.Open(path)
	if err != nil {
		slog.Warn("Legacy inventory unavailable, continuing without it", "path", path, "error", err)
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := inv.Ping(pingCtx); err != nil {
		_ = inv.Close()
		slog.Warn("Legacy inventory unreadable, continuing without it", "path", path, "error", err)
		return nil
	}
	return inv
}

// openApp wires the engine to whatever sources are configured.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		store:    store,
		patterns: patternStores(store),
	}

	if cfg.InventoryEnabled() {
		a.inventory = openInventory(ctx, config.ExpandPath(cfg.Inventory.Path), cfg.Inventory.Timeout)
	}
	a.remote = openRemote(ctx, cfg)

	var catalogOpts []catalog.Option
	var masterOpts []master.Option
	deps := engine.Deps{
		DevicePatterns:      a.patterns[model.KindDevice],
		SizePatterns:        a.patterns[model.KindSize],
		ProductTypePatterns: a.patterns[model.KindProductType],
	}
	if a.inventory != nil {
		deps.Inventory = a.inventory
		masterOpts = append(masterOpts,
			master.WithInventory(master.SizeSourceFunc(a.inventory.SizeByDevice)),
			master.WithTimeout(cfg.Inventory.Timeout))
	}
	if a.remote != nil {
		catalogOpts = append(catalogOpts, catalog.WithRemote(a.remote), catalog.WithTimeout(cfg.Remote.Timeout))
		masterOpts = append(masterOpts, master.WithRemote(a.remote))
	}
	deps.Catalog = catalog.New(store, catalogOpts...)
	sizeMaster := master.New(store, masterOpts...)
	deps.Master = sizeMaster

	a.engine = engine.NewWithConfig(deps, engine.Config{
		Workers:          cfg.Detection.Workers,
		InventoryTimeout: cfg.Inventory.Timeout,
		AutoLearn:        cfg.Detection.AutoLearn,
	})

	slog.Debug("Detection sources ready",
		"database", store.Path(),
		"inventory", a.inventory != nil,
		"remote", a.remote != nil,
		"size_master", sizeMaster.Sources())
	return a, nil
}

func (a *app) Close() {
	if a.remote != nil {
		_ = a.remote.Close()
	}
	if a.inventory != nil {
		_ = a.inventory.Close()
	}
	_ = a.store.Close()
}
