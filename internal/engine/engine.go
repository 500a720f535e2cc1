// Package engine implements the detection orchestrator that derives the
// product type, device and size of an order row.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/accusync/internal/classification"
	"github.com/Veraticus/accusync/internal/model"
)

// Column names the engine reads. Unknown columns are only consulted by the
// free-text device scan.
var (
	DeviceColumns = []string{
		"機種", "機種名", "対応機種", "端末", "端末名", "デバイス",
		"device", "model", "携帯機種", "対応端末", "機種情報",
	}
	ProductNameColumns = []string{"商品名", "product_name", "商品", "product", "Product", "PRODUCT"}
	CodeColumns        = []string{"sku", "SKU", "商品番号", "商品コード", "管理番号", "品番", "design_no"}
	// CodeKeywords find code columns by name fragment, e.g. "SKU番号".
	CodeKeywords    = []string{"sku", "商品番号", "商品コード", "管理番号"}
	PriorityColumns = []string{"備考", "notes", "memo", "説明", "description", "型番", "model_number"}
)

// Deps are the collaborators of the engine. A nil field means the
// capability is not available and its cascade stages are skipped.
type Deps struct {
	Matcher             DeviceMatcher
	Catalog             Catalog
	Inventory           Inventory
	DevicePatterns      PatternStore
	SizePatterns        PatternStore
	ProductTypePatterns PatternStore
	Master              SizeMaster
}

// Config holds configuration options for the detection engine.
type Config struct {
	Workers          int
	InventoryTimeout time.Duration
	AutoLearn        bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:          4,
		InventoryTimeout: 3 * time.Second,
	}
}

// Engine runs the detection cascades. It is safe for concurrent use.
type Engine struct {
	deps   Deps
	config Config
}

// New creates an engine with the default configuration. A nil matcher is
// replaced by the default device rule table.
func New(deps Deps) *Engine {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(deps Deps, config Config) *Engine {
	if deps.Matcher == nil {
		deps.Matcher = classification.NewDefaultDeviceMatcher()
	}
	defaults := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.InventoryTimeout <= 0 {
		config.InventoryTimeout = defaults.InventoryTimeout
	}
	return &Engine{deps: deps, config: config}
}

// DetectRow detects product type, device and size in that order. Size
// detection depends on the first two.
func (e *Engine) DetectRow(ctx context.Context, row model.Row) model.RowDetection {
	productType := e.DetectProductType(ctx, row)
	device, brand := e.DetectDevice(ctx, row)
	size := e.DetectSize(ctx, row, productType.Value, device.Value, brand)

	detection := model.RowDetection{
		ProductType: productType,
		Device:      device,
		Size:        size,
		Brand:       brand,
	}
	if structure, ok := classification.ExtractNotebookStructure(productName(row)); ok {
		detection.Structure = structure
	}

	if e.config.AutoLearn {
		e.autoLearn(ctx, row, detection)
	}
	return detection
}

func productName(row model.Row) string {
	name, _ := row.Lookup(ProductNameColumns...)
	return name
}

func productCode(row model.Row) string {
	code, _ := lookupCode(row)
	return code
}

// lookupCode reads the SKU or product code: known column names first, then
// any column whose name contains a code keyword.
func lookupCode(row model.Row) (code, column string) {
	if code, column = row.Lookup(CodeColumns...); code != "" {
		return code, column
	}
	return row.LookupContaining(CodeKeywords...)
}

func optionsSelection(row model.Row) (classification.OptionsSelection, string, bool) {
	for _, column := range row.Keys() {
		if !classification.IsOptionsColumn(column) {
			continue
		}
		raw, _ := row.Get(column)
		if sel, ok := classification.ExtractFromOptions(raw); ok {
			return sel, column, true
		}
	}
	return classification.OptionsSelection{}, "", false
}

func found(attribute string, value string, method model.Method, column string) model.DetectionResult {
	slog.Debug("Detection stage hit",
		"attribute", attribute,
		"method", method,
		"value", value)
	return model.DetectionResult{Value: value, Method: method, Column: column}
}

func learned(attribute string, value string, method model.Method, confidence float64) model.DetectionResult {
	r := found(attribute, value, method, "")
	r.Confidence = &confidence
	return r
}

func (e *Engine) inventory(ctx context.Context, lookup string, call func(context.Context, Inventory) (string, error)) string {
	if e.deps.Inventory == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.InventoryTimeout)
	defer cancel()

	value, err := call(ctx, e.deps.Inventory)
	if err != nil {
		slog.Warn("Legacy inventory lookup failed", "lookup", lookup, "error", err)
		return ""
	}
	return strings.TrimSpace(value)
}
