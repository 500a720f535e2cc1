package pattern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/textnorm"
)

// Store errors.
var (
	ErrEmptySource   = errors.New("source text cannot be empty")
	ErrEmptyTarget   = errors.New("target value cannot be empty")
	ErrInvalidSource = errors.New("invalid pattern source")
	ErrNoFragment    = errors.New("no fragment could be derived from source text")
)

// Store is one adaptive pattern store. The engine uses three: device, size
// and product type, sharing one Repository.
type Store struct {
	repo     Repository
	fragment Fragmenter
	kind     model.PatternKind
}

// NewStore creates a store for kind that keys patterns with fragment.
func NewStore(repo Repository, kind model.PatternKind, fragment Fragmenter) *Store {
	return &Store{
		repo:     repo,
		kind:     kind,
		fragment: fragment,
	}
}

// NewDeviceStore creates the device-name store. Auxiliary values are brands.
func NewDeviceStore(repo Repository) *Store {
	return NewStore(repo, model.KindDevice, DeviceFragment)
}

// NewSizeStore creates the size store. Auxiliary values are device names.
func NewSizeStore(repo Repository) *Store {
	return NewStore(repo, model.KindSize, SizeFragment)
}

// NewProductTypeStore creates the product-type store.
func NewProductTypeStore(repo Repository) *Store {
	return NewStore(repo, model.KindProductType, ProductTypeFragment)
}

// Kind returns the kind of patterns this store holds.
func (s *Store) Kind() model.PatternKind {
	return s.kind
}

// LearnRequest is one correction to learn from.
type LearnRequest struct {
	SourceText  string
	TargetValue string
	Auxiliary   string
	Source      model.PatternSource
}

// Learn derives a fragment from the source text and stores it, reinforcing
// the existing pattern when the same (fragment, target, auxiliary) is known.
// Persistence failures are returned to the caller.
func (s *Store) Learn(ctx context.Context, req LearnRequest) (*model.LearnedPattern, error) {
	source := textnorm.Normalize(strings.TrimSpace(req.SourceText))
	target := strings.TrimSpace(req.TargetValue)
	auxiliary := strings.TrimSpace(req.Auxiliary)

	if source == "" {
		return nil, ErrEmptySource
	}
	if target == "" {
		return nil, ErrEmptyTarget
	}
	if !req.Source.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, req.Source)
	}

	fragment := s.fragment(source, target, auxiliary)
	if fragment == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoFragment, source)
	}

	p, err := s.repo.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind:        s.kind,
		Pattern:     fragment,
		TargetValue: target,
		Auxiliary:   auxiliary,
		Source:      req.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to learn %s pattern: %w", s.kind, err)
	}

	slog.Debug("Learned pattern",
		"kind", s.kind,
		"pattern", p.Pattern,
		"target", p.TargetValue,
		"confidence", p.Confidence,
		"usage_count", p.UsageCount)

	return p, nil
}

// Prediction is a learned-pattern hit.
type Prediction struct {
	Value      string
	Auxiliary  string
	Pattern    string
	Source     model.PatternSource
	PatternID  int64
	Confidence float64
	Filtered   bool
}

// Method returns the detection method tag for this prediction.
func (p Prediction) Method() model.Method {
	return model.LearnedMethod(p.Source, p.Filtered)
}

// Predict returns the best stored pattern contained in text, or nil.
// When auxiliaryFilter is set, patterns with that auxiliary are tried first.
// A hit reinforces the pattern; a failed reinforcement is logged and the
// prediction is still returned.
func (s *Store) Predict(ctx context.Context, text, auxiliaryFilter string) *Prediction {
	text = strings.ToLower(textnorm.Normalize(text))
	if strings.TrimSpace(text) == "" {
		return nil
	}

	patterns, err := s.repo.ListLearnedPatterns(ctx, s.kind)
	if err != nil {
		slog.Warn("Failed to load learned patterns", "kind", s.kind, "error", err)
		return nil
	}

	auxiliaryFilter = strings.TrimSpace(auxiliaryFilter)
	if auxiliaryFilter != "" {
		for i := range patterns {
			p := &patterns[i]
			if strings.EqualFold(p.Auxiliary, auxiliaryFilter) && contains(text, p.Pattern) {
				return s.hit(ctx, p, true)
			}
		}
	}

	for i := range patterns {
		if contains(text, patterns[i].Pattern) {
			return s.hit(ctx, &patterns[i], false)
		}
	}

	return nil
}

func contains(lowerText, pattern string) bool {
	return pattern != "" && strings.Contains(lowerText, strings.ToLower(pattern))
}

func (s *Store) hit(ctx context.Context, p *model.LearnedPattern, filtered bool) *Prediction {
	if err := s.repo.ReinforceLearnedPattern(ctx, p.ID); err != nil {
		slog.Warn("Failed to reinforce learned pattern",
			"kind", s.kind,
			"pattern_id", p.ID,
			"error", err)
	}

	return &Prediction{
		Value:      p.TargetValue,
		Auxiliary:  p.Auxiliary,
		Pattern:    p.Pattern,
		Source:     p.Source,
		PatternID:  p.ID,
		Confidence: model.Reinforce(p.Confidence),
		Filtered:   filtered,
	}
}

// List returns every pattern in prediction order.
func (s *Store) List(ctx context.Context) ([]model.LearnedPattern, error) {
	return s.repo.ListLearnedPatterns(ctx, s.kind)
}

// ListByTarget returns the patterns that map to target.
func (s *Store) ListByTarget(ctx context.Context, target string) ([]model.LearnedPattern, error) {
	return s.repo.ListLearnedPatternsByTarget(ctx, s.kind, target)
}

// Delete removes a pattern.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteLearnedPattern(ctx, id)
}

// Stats summarizes the store.
func (s *Store) Stats(ctx context.Context) (*model.PatternStats, error) {
	return s.repo.LearnedPatternStats(ctx, s.kind)
}
