// Package remote reads the hosted design and device master over Postgres.
// Every query is rate limited and bounded by a timeout.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/accusync/internal/catalog"
	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/service"
	"golang.org/x/time/rate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// MinKeywordLength is the shortest code fragment used in fuzzy search.
	MinKeywordLength = 3
	defaultTimeout   = 5 * time.Second
	defaultRate      = 5.0
	defaultPageSize  = 1000
)

// Config configures the remote client.
type Config struct {
	DSN           string
	Timeout       time.Duration
	RatePerSecond float64
	PageSize      int
}

// Client queries the remote master.
type Client struct {
	db       *gorm.DB
	limiter  *rate.Limiter
	timeout  time.Duration
	pageSize int
}

// Open connects to the remote Postgres master and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: remote.dsn", common.ErrMissingConfig)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open remote master: %w", err)
	}

	c := NewClient(db, cfg)
	err = common.WithRetry(ctx, func() error {
		return c.Ping(ctx)
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	slog.Info("Connected to remote master", "timeout", c.timeout, "rate_per_second", c.limiter.Limit())
	return c, nil
}

// NewClient wraps an open gorm handle.
func NewClient(db *gorm.DB, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRate
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Client{
		db:       db,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		timeout:  cfg.Timeout,
		pageSize: cfg.PageSize,
	}
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// query waits for the limiter and returns a handle bounded by the client timeout.
func (c *Client) query(ctx context.Context) (*gorm.DB, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.db.WithContext(ctx), cancel, nil
}

// firstDesign returns the first active design matching scope, or nil.
func (c *Client) firstDesign(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (*DesignRecord, error) {
	db, cancel, err := c.query(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var rec DesignRecord
	err = scope(db.Model(&DesignRecord{}).Where("status = ?", ActiveStatus)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FuzzyProductType finds a case type for code: exact design number, then
// substring search on code fragments longest first, then the leading segment
// as a prefix. It returns "" when nothing matches.
func (c *Client) FuzzyProductType(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	withType := func(db *gorm.DB) *gorm.DB {
		return db.Where("case_type <> ''")
	}

	rec, err := c.firstDesign(ctx, func(db *gorm.DB) *gorm.DB {
		return withType(db).Where("design_no = ?", code)
	})
	if err != nil || rec != nil {
		return caseType(rec), err
	}

	for _, kw := range SearchKeywords(code) {
		rec, err = c.firstDesign(ctx, func(db *gorm.DB) *gorm.DB {
			return withType(db).Where(likeClause, "%"+common.EscapeLike(strings.ToLower(kw))+"%").Order("id")
		})
		if err != nil || rec != nil {
			if rec != nil {
				slog.Debug("Remote fuzzy match", "code", code, "keyword", kw, "design_no", rec.DesignNo)
			}
			return caseType(rec), err
		}
	}

	if prefix := leadingSegment(code); len(prefix) >= MinKeywordLength {
		rec, err = c.firstDesign(ctx, func(db *gorm.DB) *gorm.DB {
			return withType(db).Where(likeClause, common.EscapeLike(strings.ToLower(prefix))+"%").Order("id")
		})
		return caseType(rec), err
	}

	return "", nil
}

// DeviceByDesign finds the device name of the design code refers to: exact,
// then a design number that prefixes code (longer than 3 characters), then a
// design number starting with code. The brand is prefixed when missing.
func (c *Client) DeviceByDesign(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	withDevice := func(db *gorm.DB) *gorm.DB {
		return db.Where("device_name <> ''")
	}

	scopes := []func(*gorm.DB) *gorm.DB{
		func(db *gorm.DB) *gorm.DB {
			return withDevice(db).Where("design_no = ?", code)
		},
		func(db *gorm.DB) *gorm.DB {
			return withDevice(db).
				Where("LENGTH(design_no) > ?", catalog.MinPrefixLength).
				Where("SUBSTR(CAST(? AS TEXT), 1, LENGTH(design_no)) = design_no", code).
				Order("LENGTH(design_no) DESC")
		},
		func(db *gorm.DB) *gorm.DB {
			return withDevice(db).
				Where(likeClause, common.EscapeLike(strings.ToLower(code))+"%").
				Order("LENGTH(design_no) ASC")
		},
	}

	for _, scope := range scopes {
		rec, err := c.firstDesign(ctx, scope)
		if err != nil {
			return "", err
		}
		if rec != nil {
			return catalog.WithBrand(rec.DeviceName, rec.Brand), nil
		}
	}
	return "", nil
}

// DeviceSize returns the size category of a device: substring match on the
// device name within the brand, then on the tokens after the first word.
func (c *Client) DeviceSize(ctx context.Context, brand, device string) (string, error) {
	brand = strings.TrimSpace(brand)
	device = strings.TrimSpace(device)
	if brand == "" || device == "" {
		return "", nil
	}

	candidates := []string{device}
	if fields := strings.Fields(device); len(fields) > 1 {
		candidates = append(candidates, strings.Join(fields[1:], " "))
	}

	for _, fragment := range candidates {
		db, cancel, err := c.query(ctx)
		if err != nil {
			return "", err
		}

		var rec DeviceRecord
		err = db.Where("brand = ?", brand).
			Where("size_category <> ''").
			Where("LOWER(device_name) LIKE ? ESCAPE '\\'", "%"+common.EscapeLike(strings.ToLower(fragment))+"%").
			Order("LENGTH(device_name) ASC").
			First(&rec).Error
		cancel()

		switch {
		case err == nil:
			return rec.SizeCategory, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return "", fmt.Errorf("failed to query remote device size: %w", err)
		}
	}
	return "", nil
}

// Designs fetches every design, paginated by primary key.
func (c *Client) Designs(ctx context.Context) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	err := paginate(ctx, c, func(db *gorm.DB, offset int) (int, error) {
		var page []DesignRecord
		if err := db.Order("id").Offset(offset).Limit(c.pageSize).Find(&page).Error; err != nil {
			return 0, err
		}
		for _, r := range page {
			entries = append(entries, r.CatalogEntry())
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch designs: %w", err)
	}
	slog.Info("Fetched designs from remote master", "count", len(entries))
	return entries, nil
}

// Devices fetches every device attribute, paginated by primary key.
func (c *Client) Devices(ctx context.Context) ([]model.DeviceAttribute, error) {
	var devices []model.DeviceAttribute
	err := paginate(ctx, c, func(db *gorm.DB, offset int) (int, error) {
		var page []DeviceRecord
		if err := db.Order("id").Offset(offset).Limit(c.pageSize).Find(&page).Error; err != nil {
			return 0, err
		}
		for _, r := range page {
			devices = append(devices, r.DeviceAttribute())
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	slog.Info("Fetched devices from remote master", "count", len(devices))
	return devices, nil
}

// paginate fetches pages until one comes back short. A page that fails with
// a transient error is retried.
func paginate(ctx context.Context, c *Client, fetch func(db *gorm.DB, offset int) (int, error)) error {
	for offset := 0; ; offset += c.pageSize {
		var n int
		err := common.WithRetry(ctx, func() error {
			db, cancel, err := c.query(ctx)
			if err != nil {
				return err
			}
			defer cancel()

			n, err = fetch(db, offset)
			if err != nil && !common.IsRetryable(err) {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return err
		}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
		if err != nil {
			return err
		}
		if n < c.pageSize {
			return nil
		}
	}
}

// SearchKeywords splits code on "_" and "-" and returns the distinct
// fragments of at least MinKeywordLength characters plus the whole code,
// longest first.
func SearchKeywords(code string) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(s string) {
		if len(s) >= MinKeywordLength && !seen[s] {
			seen[s] = true
			keywords = append(keywords, s)
		}
	}

	for _, sep := range []string{"_", "-"} {
		if strings.Contains(code, sep) {
			for _, part := range strings.Split(code, sep) {
				add(part)
			}
		}
	}
	add(code)

	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i]) > len(keywords[j])
	})
	return keywords
}

func leadingSegment(code string) string {
	if i := strings.Index(code, "_"); i >= 0 {
		return code[:i]
	}
	if i := strings.Index(code, "-"); i >= 0 {
		return code[:i]
	}
	return code
}

func caseType(rec *DesignRecord) string {
	if rec == nil {
		return ""
	}
	return rec.CaseType
}

const likeClause = "LOWER(design_no) LIKE ? ESCAPE '\\'"
