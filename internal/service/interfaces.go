// Package service defines the interfaces shared between the CLI and the detection packages.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/accusync/internal/model"
)

// Storage defines the contract for the local persistence layer.
type Storage interface {
	// Learned pattern operations
	UpsertLearnedPattern(ctx context.Context, p *model.LearnedPattern) (*model.LearnedPattern, error)
	GetLearnedPattern(ctx context.Context, id int64) (*model.LearnedPattern, error)
	ListLearnedPatterns(ctx context.Context, kind model.PatternKind) ([]model.LearnedPattern, error)
	ListLearnedPatternsByTarget(ctx context.Context, kind model.PatternKind, target string) ([]model.LearnedPattern, error)
	ReinforceLearnedPattern(ctx context.Context, id int64) error
	DeleteLearnedPattern(ctx context.Context, id int64) error
	LearnedPatternStats(ctx context.Context, kind model.PatternKind) (*model.PatternStats, error)

	// Catalog operations
	UpsertCatalogEntry(ctx context.Context, entry *model.CatalogEntry) error
	GetActiveCatalogEntry(ctx context.Context, code string) (*model.CatalogEntry, error)
	FindCatalogEntriesPrefixOf(ctx context.Context, code string, minLen int) ([]model.CatalogEntry, error)
	FindCatalogEntriesStartingWith(ctx context.Context, code string) ([]model.CatalogEntry, error)
	CountCatalogEntries(ctx context.Context) (active, total int, err error)

	// Device attribute operations
	UpsertDeviceAttribute(ctx context.Context, d *model.DeviceAttribute) error
	DeviceSize(ctx context.Context, brand, device string) (string, error)
	CountDeviceAttributes(ctx context.Context) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// RetryOptions configures retry behavior for remote operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
