package engine

import (
	"context"
	"slices"
	"strings"

	"github.com/Veraticus/accusync/internal/classification"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/textnorm"
)

// DetectDevice runs the device cascade and returns the result with the brand
// it implies. The brand is "" when the winning stage does not know it.
//
// Order: options field, device column, learned patterns on the product name,
// device rules on the product name, catalog by code, other columns.
func (e *Engine) DetectDevice(ctx context.Context, row model.Row) (model.DetectionResult, string) {
	if sel, column, ok := optionsSelection(row); ok && sel.Device != "" {
		return found("device", sel.Device, model.MethodOptionsColumn, column), sel.Brand
	}

	if value, column := row.Lookup(DeviceColumns...); value != "" {
		device, brand := e.canonicalDevice(value)
		return found("device", device, model.MethodDeviceColumn, column), brand
	}

	name, nameColumn := row.Lookup(ProductNameColumns...)
	if name != "" && e.deps.DevicePatterns != nil {
		if p := e.deps.DevicePatterns.Predict(ctx, name, ""); p != nil {
			return learned("device", p.Value, p.Method(), p.Confidence), p.Auxiliary
		}
	}

	if m := e.deps.Matcher.ExtractDevice(name); m != nil {
		return found("device", m.Device, model.MethodProductName, nameColumn), m.Brand
	}

	if code, codeColumn := lookupCode(row); code != "" && e.deps.Catalog != nil {
		if hit, ok := e.deps.Catalog.LookupDevice(ctx, code); ok {
			brand := hit.Brand
			if brand == "" {
				if m := e.deps.Matcher.ExtractDevice(hit.Value); m != nil {
					brand = m.Brand
				}
			}
			return found("device", hit.Value, hit.Method, codeColumn), brand
		}
	}

	if result, brand, ok := e.scanOtherColumns(row); ok {
		return result, brand
	}

	return model.NotFound(), ""
}

// canonicalDevice standardizes a device column value. Values no rule
// recognizes are kept as written.
func (e *Engine) canonicalDevice(value string) (device, brand string) {
	if m := e.deps.Matcher.ExtractDevice(value); m != nil {
		return m.Device, m.Brand
	}
	return strings.TrimSpace(textnorm.Normalize(value)), ""
}

// scanOtherColumns applies the device rules to the priority free-text
// columns, then to every column no earlier stage read.
func (e *Engine) scanOtherColumns(row model.Row) (model.DetectionResult, string, bool) {
	try := func(column string) (model.DetectionResult, string, bool) {
		value, ok := row.Get(column)
		if !ok || strings.TrimSpace(value) == "" {
			return model.DetectionResult{}, "", false
		}
		m := e.deps.Matcher.ExtractDevice(value)
		if m == nil {
			return model.DetectionResult{}, "", false
		}
		return found("device", m.Device, model.MethodOtherColumn, column), m.Brand, true
	}

	for _, column := range PriorityColumns {
		if result, brand, ok := try(column); ok {
			return result, brand, true
		}
	}

	for _, column := range row.Keys() {
		if consultedColumn(column) {
			continue
		}
		if result, brand, ok := try(column); ok {
			return result, brand, true
		}
	}

	return model.DetectionResult{}, "", false
}

func consultedColumn(column string) bool {
	return classification.IsOptionsColumn(column) ||
		slices.Contains(PriorityColumns, column) ||
		slices.Contains(DeviceColumns, column) ||
		slices.Contains(ProductNameColumns, column) ||
		isCodeColumn(column)
}

func isCodeColumn(column string) bool {
	if slices.Contains(CodeColumns, column) {
		return true
	}
	lower := strings.ToLower(column)
	for _, k := range CodeKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
