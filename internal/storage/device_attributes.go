package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/textnorm"
)

// UpsertDeviceAttribute inserts or updates the size category of a device.
func (s *SQLiteStorage) UpsertDeviceAttribute(ctx context.Context, d *model.DeviceAttribute) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDeviceAttribute(d); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_attributes (brand, device_name, size_category, attribute_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(brand, device_name) DO UPDATE SET
			size_category = excluded.size_category,
			attribute_value = excluded.attribute_value,
			updated_at = CURRENT_TIMESTAMP
	`, strings.TrimSpace(d.Brand), strings.TrimSpace(d.DeviceName), strings.TrimSpace(d.SizeCategory), d.AttributeValue)
	if err != nil {
		return fmt.Errorf("failed to upsert device attribute: %w", err)
	}
	return nil
}

// DeviceSize resolves the size category of a device in three steps:
// whitespace-insensitive exact name, substring, then the tokens after the
// first word. It returns "" when nothing matches.
func (s *SQLiteStorage) DeviceSize(ctx context.Context, brand, device string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	brand = strings.TrimSpace(brand)
	device = strings.TrimSpace(device)
	if brand == "" || device == "" {
		return "", nil
	}

	size, err := s.queryDeviceSize(ctx, `
		SELECT size_category FROM device_attributes
		WHERE brand = ? COLLATE NOCASE
			AND REPLACE(LOWER(device_name), ' ', '') = ?
		LIMIT 1
	`, brand, textnorm.Compact(device))
	if err != nil || size != "" {
		return size, err
	}

	if size, err = s.deviceSizeContaining(ctx, brand, device); err != nil || size != "" {
		return size, err
	}

	fields := strings.Fields(device)
	if len(fields) < 2 {
		return "", nil
	}
	return s.deviceSizeContaining(ctx, brand, strings.Join(fields[1:], " "))
}

func (s *SQLiteStorage) deviceSizeContaining(ctx context.Context, brand, fragment string) (string, error) {
	return s.queryDeviceSize(ctx, `
		SELECT size_category FROM device_attributes
		WHERE brand = ? COLLATE NOCASE
			AND device_name LIKE ? ESCAPE '\'
		ORDER BY length(device_name) ASC
		LIMIT 1
	`, brand, "%"+common.EscapeLike(fragment)+"%")
}

func (s *SQLiteStorage) queryDeviceSize(ctx context.Context, query string, args ...any) (string, error) {
	var size string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query device size: %w", err)
	}
	return size, nil
}

// CountDeviceAttributes returns the number of stored device attributes.
func (s *SQLiteStorage) CountDeviceAttributes(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_attributes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count device attributes: %w", err)
	}
	return count, nil
}
