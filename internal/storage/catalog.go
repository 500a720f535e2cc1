package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/model"
)

const catalogColumns = `design_number, design_name, product_type, device_name, brand, material, status, updated_at`

// UpsertCatalogEntry inserts or replaces a catalog entry keyed by design number.
func (s *SQLiteStorage) UpsertCatalogEntry(ctx context.Context, entry *model.CatalogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCatalogEntry(entry); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_entries (design_number, design_name, product_type, device_name, brand, material, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(design_number) DO UPDATE SET
			design_name = excluded.design_name,
			product_type = excluded.product_type,
			device_name = excluded.device_name,
			brand = excluded.brand,
			material = excluded.material,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, strings.TrimSpace(entry.DesignNumber), entry.DesignName, entry.ProductType, entry.DeviceName,
		entry.Brand, entry.Material, entry.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog entry: %w", err)
	}
	return nil
}

// GetActiveCatalogEntry returns the active entry whose design number equals code.
func (s *SQLiteStorage) GetActiveCatalogEntry(ctx context.Context, code string) (*model.CatalogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE design_number = ? AND status = 'active'
	`, code)

	entry, err := scanCatalogEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogEntryNotFound, code)
		}
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}
	return entry, nil
}

// FindCatalogEntriesPrefixOf returns active entries whose design number is a
// prefix of code and longer than minLen characters, longest first.
func (s *SQLiteStorage) FindCatalogEntriesPrefixOf(ctx context.Context, code string, minLen int) ([]model.CatalogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE status = 'active'
			AND length(design_number) > ?2
			AND length(design_number) <= length(?1)
			AND substr(?1, 1, length(design_number)) = design_number
		ORDER BY length(design_number) DESC, design_number ASC
	`, code, minLen)
	if err != nil {
		return nil, fmt.Errorf("failed to find catalog entries by prefix: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCatalogEntries(rows)
}

// FindCatalogEntriesStartingWith returns active entries whose design number
// starts with code, shortest first.
func (s *SQLiteStorage) FindCatalogEntriesStartingWith(ctx context.Context, code string) ([]model.CatalogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE status = 'active'
			AND design_number LIKE ? ESCAPE '\'
		ORDER BY length(design_number) ASC, design_number ASC
	`, common.EscapeLike(code)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to find catalog entries by suffix: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries, err := collectCatalogEntries(rows)
	if err != nil {
		return nil, err
	}

	// LIKE is case-insensitive for ASCII; the match must be exact.
	filtered := entries[:0]
	for _, e := range entries {
		if strings.HasPrefix(e.DesignNumber, code) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// CountCatalogEntries returns the number of active and total entries.
func (s *SQLiteStorage) CountCatalogEntries(ctx context.Context) (active, total int, err error) {
	if err := validateContext(ctx); err != nil {
		return 0, 0, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0), COUNT(*)
		FROM catalog_entries
	`).Scan(&active, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count catalog entries: %w", err)
	}
	return active, total, nil
}

func scanCatalogEntry(row rowScanner) (*model.CatalogEntry, error) {
	var e model.CatalogEntry
	var updatedAt sql.NullTime
	err := row.Scan(&e.DesignNumber, &e.DesignName, &e.ProductType, &e.DeviceName,
		&e.Brand, &e.Material, &e.Status, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt = updatedAt.Time
	return &e, nil
}

func collectCatalogEntries(rows *sql.Rows) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog entries: %w", err)
	}
	return entries, nil
}
