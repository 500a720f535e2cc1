package engine

import (
	"context"

	"github.com/Veraticus/accusync/internal/catalog"
	"github.com/Veraticus/accusync/internal/classification"
	"github.com/Veraticus/accusync/internal/pattern"
)

// DeviceMatcher finds device names in free text.
type DeviceMatcher interface {
	ExtractDevice(text string) *classification.DeviceMatch
}

// Catalog resolves design numbers. *catalog.Lookup implements it.
type Catalog interface {
	LocalProductType(ctx context.Context, code string) (catalog.Hit, bool)
	RemoteProductType(ctx context.Context, code string) (catalog.Hit, bool)
	LookupDevice(ctx context.Context, code string) (catalog.Hit, bool)
}

// Inventory is the legacy inventory. *inventory.Store implements it.
type Inventory interface {
	SizeBySKU(ctx context.Context, sku string) (string, error)
	SizeByProductNumber(ctx context.Context, productNumber string) (string, error)
	SizeByDevice(ctx context.Context, brand, device string) (string, error)
	ProductTypeByCode(ctx context.Context, code string) (string, error)
}

// PatternStore is one adaptive pattern store. *pattern.Store implements it.
type PatternStore interface {
	pattern.Predictor
	pattern.Learner
}

// SizeMaster answers device sizes from the device masters. *master.Lookup
// implements it.
type SizeMaster interface {
	GetSize(ctx context.Context, brand, device string) (size, source string, ok bool)
}
