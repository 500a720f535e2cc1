package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/pattern"
)

// ErrNoPatternStore is returned when a correction targets a store the engine
// was built without.
var ErrNoPatternStore = errors.New("pattern store not configured")

// Correction is an operator's fix to one row. Empty fields were not corrected.
type Correction struct {
	Row         model.Row
	ProductType string
	Device      string
	Brand       string
	Size        string
}

// LearnCorrection records each corrected attribute as a manual pattern.
// The product name is the source text; product types are also learned from
// the code. The first persistence failure is returned.
func (e *Engine) LearnCorrection(ctx context.Context, c Correction) ([]*model.LearnedPattern, error) {
	name := productName(c.Row)
	code := productCode(c.Row)
	if name == "" && code == "" {
		return nil, fmt.Errorf("%w: row has no product name or code", pattern.ErrEmptySource)
	}

	var patterns []*model.LearnedPattern
	learn := func(store PatternStore, kind model.PatternKind, source, target, auxiliary string) error {
		if strings.TrimSpace(target) == "" || source == "" {
			return nil
		}
		if store == nil {
			return fmt.Errorf("%w: %s", ErrNoPatternStore, kind)
		}
		p, err := store.Learn(ctx, pattern.LearnRequest{
			SourceText:  source,
			TargetValue: target,
			Auxiliary:   auxiliary,
			Source:      model.SourceManual,
		})
		if err != nil {
			return fmt.Errorf("failed to learn %s correction: %w", kind, err)
		}
		patterns = append(patterns, p)
		return nil
	}

	if err := learn(e.deps.ProductTypePatterns, model.KindProductType, name, c.ProductType, ""); err != nil {
		return patterns, err
	}
	if err := learn(e.deps.ProductTypePatterns, model.KindProductType, code, c.ProductType, ""); err != nil {
		return patterns, err
	}
	if err := learn(e.deps.DevicePatterns, model.KindDevice, name, c.Device, c.Brand); err != nil {
		return patterns, err
	}
	if err := learn(e.deps.SizePatterns, model.KindSize, name, c.Size, c.Device); err != nil {
		return patterns, err
	}

	slog.Info("Learned correction", "patterns", len(patterns))
	return patterns, nil
}

// autoLearn records rule-based device and size hits as auto patterns so the
// stores warm up without operator input. Failures are logged only.
func (e *Engine) autoLearn(ctx context.Context, row model.Row, d model.RowDetection) {
	name := productName(row)
	if name == "" {
		return
	}

	record := func(store PatternStore, result model.DetectionResult, auxiliary string) {
		if store == nil || !result.Found() {
			return
		}
		switch result.Method {
		case model.MethodOptionsColumn, model.MethodProductName, model.MethodRegex:
		default:
			return
		}
		_, err := store.Learn(ctx, pattern.LearnRequest{
			SourceText:  name,
			TargetValue: result.Value,
			Auxiliary:   auxiliary,
			Source:      model.SourceAuto,
		})
		if err != nil && !errors.Is(err, pattern.ErrNoFragment) {
			slog.Warn("Auto-learn failed", "method", result.Method, "value", result.Value, "error", err)
		}
	}

	record(e.deps.DevicePatterns, d.Device, d.Brand)
	record(e.deps.SizePatterns, d.Size, d.Device.Value)
}
