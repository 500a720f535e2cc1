package engine

import (
	"context"

	"github.com/Veraticus/accusync/internal/classification"
	"github.com/Veraticus/accusync/internal/model"
)

// DetectProductType runs the product-type cascade. The stage order decides
// ties between sources that disagree and must not be rearranged:
// local catalog by code, remote catalog by code, legacy inventory by code,
// learned patterns on the code, local catalog by the design number in the
// product name, learned patterns on the product name, keyword extraction.
func (e *Engine) DetectProductType(ctx context.Context, row model.Row) model.DetectionResult {
	code, codeColumn := lookupCode(row)
	name, nameColumn := row.Lookup(ProductNameColumns...)

	if code != "" {
		if e.deps.Catalog != nil {
			if hit, ok := e.deps.Catalog.LocalProductType(ctx, code); ok {
				return found("product_type", hit.Value, hit.Method, codeColumn)
			}
			if hit, ok := e.deps.Catalog.RemoteProductType(ctx, code); ok {
				return found("product_type", hit.Value, hit.Method, codeColumn)
			}
		}

		productType := e.inventory(ctx, "product_type_by_code", func(ctx context.Context, inv Inventory) (string, error) {
			return inv.ProductTypeByCode(ctx, code)
		})
		if productType != "" {
			return found("product_type", productType, model.MethodLegacyInventory, codeColumn)
		}

		if e.deps.ProductTypePatterns != nil {
			if p := e.deps.ProductTypePatterns.Predict(ctx, code, ""); p != nil {
				return learned("product_type", p.Value, p.Method(), p.Confidence)
			}
		}
	}

	if name == "" {
		return model.NotFound()
	}

	if e.deps.Catalog != nil {
		if design, ok := classification.ExtractDesignNumber(name); ok {
			if hit, ok := e.deps.Catalog.LocalProductType(ctx, design); ok {
				return found("product_type", hit.Value, hit.Method, nameColumn)
			}
		}
	}

	if e.deps.ProductTypePatterns != nil {
		if p := e.deps.ProductTypePatterns.Predict(ctx, name, ""); p != nil {
			return learned("product_type", p.Value, p.Method(), p.Confidence)
		}
	}

	if keywords := classification.ExtractProductKeywords(name); keywords != "" {
		return found("product_type", keywords, model.MethodRegex, nameColumn)
	}

	return model.NotFound()
}
