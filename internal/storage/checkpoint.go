package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAutoCheckpoints is how many automatic checkpoints are kept.
const MaxAutoCheckpoints = 5

// Checkpoint errors.
var (
	ErrCheckpointNotFound    = errors.New("checkpoint not found")
	ErrCheckpointExists      = errors.New("checkpoint already exists")
	ErrCheckpointCorrupted   = errors.New("checkpoint integrity check failed")
	ErrCheckpointUnsupported = errors.New("in-memory databases cannot be checkpointed")
	ErrInvalidCheckpointTag  = errors.New("checkpoint tag cannot contain path separators")
)

// CheckpointInfo describes one snapshot of the local store.
type CheckpointInfo struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	FileSize        int64     `json:"file_size"`
	LearnedPatterns int       `json:"learned_patterns"`
	CatalogEntries  int       `json:"catalog_entries"`
	Devices         int       `json:"device_attributes"`
	SchemaVersion   int       `json:"schema_version"`
	IsAuto          bool      `json:"is_auto"`
}

// CheckpointManager snapshots the local store next to the database file so
// a bad catalog sync or pattern cleanup can be undone by hand.
type CheckpointManager struct {
	store *SQLiteStorage
	dir   string
}

// Checkpoints returns the checkpoint manager of the store. Snapshots live in
// a checkpoints directory beside the database file.
func (s *SQLiteStorage) Checkpoints() (*CheckpointManager, error) {
	if s.dbPath == ":memory:" {
		return nil, ErrCheckpointUnsupported
	}
	dir := filepath.Join(filepath.Dir(s.dbPath), "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	return &CheckpointManager{store: s, dir: dir}, nil
}

// Dir returns the directory holding the snapshots.
func (cm *CheckpointManager) Dir() string {
	return cm.dir
}

// Create snapshots the database under tag. An empty tag is generated from
// the current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint snapshots the database before an operation named by
// prefix and prunes automatic snapshots beyond MaxAutoCheckpoints.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, prefix string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s-%s", prefix, time.Now().Format("2006-01-02-150405"), uuid.NewString()[:8])
	info, err := cm.create(ctx, tag, "Automatic checkpoint before "+prefix, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("Failed to prune old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if tag == "" {
		tag = "checkpoint-" + time.Now().Format("2006-01-02-150405")
	}
	if strings.ContainsAny(tag, `/\`) || strings.Contains(tag, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCheckpointTag, tag)
	}

	path := cm.dbFile(tag)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointExists, tag)
	}

	version, err := cm.store.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := cm.store.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	if _, err := cm.store.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}
	if err := verifyIntegrity(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	info := &CheckpointInfo{
		ID:            tag,
		CreatedAt:     time.Now().UTC(),
		Description:   description,
		FileSize:      stat.Size(),
		SchemaVersion: version,
		IsAuto:        auto,
	}
	cm.countRows(ctx, info)

	if err := cm.saveMetadata(info); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to save checkpoint metadata: %w", err)
	}

	slog.Info("Created checkpoint", "id", info.ID, "size", info.FileSize, "auto", auto)
	return info, nil
}

// List returns every checkpoint, newest first.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	matches, err := filepath.Glob(filepath.Join(cm.dir, "*.meta.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(matches))
	for _, path := range matches {
		info, err := loadMetadata(path)
		if err != nil {
			slog.Warn("Skipping unreadable checkpoint metadata", "path", path, "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint and its metadata.
func (cm *CheckpointManager) Delete(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := os.Stat(cm.dbFile(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
		}
		return err
	}
	if err := os.Remove(cm.dbFile(id)); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if err := os.Remove(cm.metaFile(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete checkpoint metadata: %w", err)
	}
	return nil
}

func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}
	kept := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		kept++
		if kept > MaxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("Failed to delete old auto-checkpoint", "checkpoint", cp.ID, "error", err)
			}
		}
	}
	return nil
}

// countRows fills the row counts. A missing table counts as zero.
func (cm *CheckpointManager) countRows(ctx context.Context, info *CheckpointInfo) {
	queries := []struct {
		dest  *int
		query string
	}{
		{&info.LearnedPatterns, "SELECT COUNT(*) FROM learned_patterns"},
		{&info.CatalogEntries, "SELECT COUNT(*) FROM catalog_entries"},
		{&info.Devices, "SELECT COUNT(*) FROM device_attributes"},
	}
	for _, q := range queries {
		if err := cm.store.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			*q.dest = 0
		}
	}
}

func (cm *CheckpointManager) dbFile(id string) string {
	return filepath.Join(cm.dir, id+".db")
}

func (cm *CheckpointManager) metaFile(id string) string {
	return filepath.Join(cm.dir, id+".meta.json")
}

func (cm *CheckpointManager) saveMetadata(info *CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmp := cm.metaFile(info.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, cm.metaFile(info.ID))
}

func loadMetadata(path string) (*CheckpointInfo, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from a glob of the checkpoints directory
	if err != nil {
		return nil, err
	}
	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointCorrupted, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", ErrCheckpointCorrupted, result)
	}
	return nil
}
