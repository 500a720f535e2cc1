// Package pattern implements the adaptive pattern stores that learn text
// fragments from operator corrections and predict attribute values from them.
package pattern

import (
	"context"

	"github.com/Veraticus/accusync/internal/model"
)

// Repository persists learned patterns. storage.SQLiteStorage implements it.
type Repository interface {
	UpsertLearnedPattern(ctx context.Context, p *model.LearnedPattern) (*model.LearnedPattern, error)
	ListLearnedPatterns(ctx context.Context, kind model.PatternKind) ([]model.LearnedPattern, error)
	ListLearnedPatternsByTarget(ctx context.Context, kind model.PatternKind, target string) ([]model.LearnedPattern, error)
	ReinforceLearnedPattern(ctx context.Context, id int64) error
	DeleteLearnedPattern(ctx context.Context, id int64) error
	LearnedPatternStats(ctx context.Context, kind model.PatternKind) (*model.PatternStats, error)
}

// Fragmenter derives the text fragment a pattern is keyed on from the source
// text, the corrected value and the auxiliary attribute. It returns "" when no
// fragment of at least MinFragmentRunes can be derived.
type Fragmenter func(sourceText, target, auxiliary string) string

// Predictor is the read side of a store, as used by the detection engine.
type Predictor interface {
	Predict(ctx context.Context, text, auxiliaryFilter string) *Prediction
}

// Learner is the write side of a store.
type Learner interface {
	Learn(ctx context.Context, req LearnRequest) (*model.LearnedPattern, error)
}
