// Package inventory reads the legacy notebook-case inventory database.
// The file is owned by another system and is opened read-only.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/accusync/internal/common"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// NotebookMarker identifies notebook product types in product_masters.
const NotebookMarker = "手帳"

// Store is a read-only handle on the legacy inventory.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the inventory file at path read-only.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: inventory.path", common.ErrMissingConfig)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	dsn := "file:" + path + "?mode=ro&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the file the store reads.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the file is a readable inventory.
func (s *Store) Ping(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM techo_products`).Scan(&n); err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}
	slog.Debug("Inventory reachable", "path", s.path, "techo_products", n)
	return nil
}

// SizeBySKU returns the size classification of an active notebook SKU.
func (s *Store) SizeBySKU(ctx context.Context, sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", nil
	}
	return s.first(ctx, `
		SELECT size_classification
		FROM techo_products
		WHERE sku = ? AND is_active = 1 AND COALESCE(size_classification, '') <> ''
		LIMIT 1
	`, sku)
}

// SizeByProductNumber returns the first available size of an active
// notebook product. Other product types have no size here.
func (s *Store) SizeByProductNumber(ctx context.Context, productNumber string) (string, error) {
	productNumber = strings.TrimSpace(productNumber)
	if productNumber == "" {
		return "", nil
	}

	var sizes, productType sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT available_sizes, product_type
		FROM product_masters
		WHERE product_number = ? AND is_active = 1
		LIMIT 1
	`, productNumber).Scan(&sizes, &productType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query product size: %w", err)
	}

	if !strings.Contains(productType.String, NotebookMarker) {
		return "", nil
	}
	first, _, _ := strings.Cut(sizes.String, ",")
	return strings.TrimSpace(first), nil
}

// SizeByDevice returns the size code of a device: exact brand and device,
// then the device as a substring within the brand, then the device alone.
func (s *Store) SizeByDevice(ctx context.Context, brand, device string) (string, error) {
	brand = strings.TrimSpace(brand)
	device = strings.TrimSpace(device)
	if device == "" {
		return "", nil
	}

	if brand != "" {
		size, err := s.first(ctx, `
			SELECT ts.size_code
			FROM devices d
			LEFT JOIN brands b ON d.brand_id = b.id
			LEFT JOIN techo_sizes ts ON d.techo_size_id = ts.id
			WHERE d.is_active = 1
				AND (b.name = ? OR b.display_name = ?)
				AND d.device_name = ?
				AND COALESCE(ts.size_code, '') <> ''
			LIMIT 1
		`, brand, brand, device)
		if err != nil || size != "" {
			return size, err
		}

		size, err = s.first(ctx, `
			SELECT ts.size_code
			FROM devices d
			LEFT JOIN brands b ON d.brand_id = b.id
			LEFT JOIN techo_sizes ts ON d.techo_size_id = ts.id
			WHERE d.is_active = 1
				AND (b.name = ? OR b.display_name = ?)
				AND d.device_name LIKE ? ESCAPE '\'
				AND COALESCE(ts.size_code, '') <> ''
			ORDER BY length(d.device_name)
			LIMIT 1
		`, brand, brand, "%"+common.EscapeLike(device)+"%")
		if err != nil || size != "" {
			return size, err
		}
	}

	return s.first(ctx, `
		SELECT ts.size_code
		FROM devices d
		LEFT JOIN techo_sizes ts ON d.techo_size_id = ts.id
		WHERE d.is_active = 1
			AND (d.device_name = ? OR d.device_name LIKE ? ESCAPE '\')
			AND COALESCE(ts.size_code, '') <> ''
		ORDER BY d.device_name = ? DESC, length(d.device_name)
		LIMIT 1
	`, device, "%"+common.EscapeLike(device)+"%", device)
}

// ProductTypeByCode returns the product type of an active product whose
// number equals code, else starts with code.
func (s *Store) ProductTypeByCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}

	productType, err := s.first(ctx, `
		SELECT product_type
		FROM product_masters
		WHERE product_number = ? AND is_active = 1 AND COALESCE(product_type, '') <> ''
		LIMIT 1
	`, code)
	if err != nil || productType != "" {
		return productType, err
	}

	return s.first(ctx, `
		SELECT product_type
		FROM product_masters
		WHERE product_number LIKE ? ESCAPE '\' AND is_active = 1 AND COALESCE(product_type, '') <> ''
		ORDER BY length(product_number)
		LIMIT 1
	`, common.EscapeLike(code)+"%")
}

func (s *Store) first(ctx context.Context, query string, args ...any) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query inventory: %w", err)
	}
	return strings.TrimSpace(value.String), nil
}
