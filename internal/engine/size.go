package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/accusync/internal/classification"
	"github.com/Veraticus/accusync/internal/model"
)

// IsHardCase reports whether text names a hard case. Hard cases have no size.
func IsHardCase(text string) bool {
	return strings.Contains(text, model.HardCaseKeyword)
}

// DetectSize runs the size cascade for a row whose product type, device and
// brand were already detected. Empty arguments skip the stages that need them.
func (e *Engine) DetectSize(ctx context.Context, row model.Row, productType, device, brand string) model.DetectionResult {
	name, nameColumn := row.Lookup(ProductNameColumns...)
	if IsHardCase(productType) || IsHardCase(name) {
		slog.Debug("Size not applicable", "product_type", productType)
		return model.DetectionResult{Method: model.MethodNotApplicable}
	}

	if sel, column, ok := optionsSelection(row); ok && sel.Size != "" {
		return found("size", sel.Size, model.MethodOptionsColumn, column)
	}

	if code, codeColumn := lookupCode(row); code != "" {
		size := e.inventory(ctx, "size_by_sku", func(ctx context.Context, inv Inventory) (string, error) {
			return inv.SizeBySKU(ctx, code)
		})
		if size == "" {
			size = e.inventory(ctx, "size_by_product_number", func(ctx context.Context, inv Inventory) (string, error) {
				return inv.SizeByProductNumber(ctx, code)
			})
		}
		if size != "" {
			return found("size", size, model.MethodLegacyInventory, codeColumn)
		}
	}

	if device != "" {
		size := e.inventory(ctx, "size_by_device", func(ctx context.Context, inv Inventory) (string, error) {
			return inv.SizeByDevice(ctx, brand, device)
		})
		if size != "" {
			return found("size", size, model.MethodLegacyInventory, "")
		}
	}

	if size, ok := classification.ExtractSize(name); ok {
		return found("size", size, model.MethodRegex, nameColumn)
	}

	if name != "" && e.deps.SizePatterns != nil {
		if p := e.deps.SizePatterns.Predict(ctx, name, device); p != nil {
			return learned("size", p.Value, p.Method(), p.Confidence)
		}
	}

	if device != "" && e.deps.Master != nil {
		if size, source, ok := e.deps.Master.GetSize(ctx, brand, device); ok {
			slog.Debug("Size from device master", "source", source, "device", device)
			return found("size", size, model.MethodExternalMaster, "")
		}
	}

	return model.NotFound()
}
