package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_UpsertLearnedPattern(t *testing.T) {
	tests := []struct {
		name           string
		source         model.PatternSource
		wantConfidence float64
	}{
		{name: "manual starts at 0.9", source: model.SourceManual, wantConfidence: 0.9},
		{name: "auto starts at 0.7", source: model.SourceAuto, wantConfidence: 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			p, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
				Kind:        model.KindSize,
				Pattern:     "手帳型カバー/iPhone 8(mirror)",
				TargetValue: "i6",
				Auxiliary:   "iPhone 8",
				Source:      tt.source,
			})
			require.NoError(t, err)
			assert.InDelta(t, tt.wantConfidence, p.Confidence, 1e-9)
			assert.Equal(t, 1, p.UsageCount)
			assert.Equal(t, tt.source, p.Source)
			assert.NotZero(t, p.ID)
			assert.False(t, p.CreatedAt.IsZero())
		})
	}
}

func TestSQLiteStorage_UpsertLearnedPattern_Reinforces(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	pattern := &model.LearnedPattern{
		Kind:        model.KindDevice,
		Pattern:     "wish4",
		TargetValue: "AQUOS wish4",
		Auxiliary:   "AQUOS",
		Source:      model.SourceManual,
	}

	first, err := store.UpsertLearnedPattern(ctx, pattern)
	require.NoError(t, err)

	second, err := store.UpsertLearnedPattern(ctx, pattern)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.UsageCount)
	assert.InDelta(t, 0.95, second.Confidence, 1e-9)

	patterns, err := store.ListLearnedPatterns(ctx, model.KindDevice)
	require.NoError(t, err)
	assert.Len(t, patterns, 1)

	// Confidence never exceeds the cap.
	last := second.Confidence
	for i := 0; i < 5; i++ {
		p, err := store.UpsertLearnedPattern(ctx, pattern)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Confidence, last)
		assert.LessOrEqual(t, p.Confidence, model.MaxConfidence)
		last = p.Confidence
	}
	assert.InDelta(t, 1.0, last, 1e-9)
}

func TestSQLiteStorage_UpsertLearnedPattern_DistinctAuxiliary(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, aux := range []string{"", "iPhone 15", "iPhone 15 Pro"} {
		_, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
			Kind:        model.KindSize,
			Pattern:     "手帳型カバー",
			TargetValue: "L",
			Auxiliary:   aux,
			Source:      model.SourceAuto,
		})
		require.NoError(t, err)
	}

	patterns, err := store.ListLearnedPatterns(ctx, model.KindSize)
	require.NoError(t, err)
	assert.Len(t, patterns, 3)

	// Kinds are separate stores.
	devices, err := store.ListLearnedPatterns(ctx, model.KindDevice)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestSQLiteStorage_UpsertLearnedPattern_Concurrent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
				Kind:        model.KindProductType,
				Pattern:     "ハードケース",
				TargetValue: "ハードケース",
				Source:      model.SourceManual,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	patterns, err := store.ListLearnedPatterns(ctx, model.KindProductType)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, workers, patterns[0].UsageCount)
}

func TestSQLiteStorage_UpsertLearnedPattern_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		pattern *model.LearnedPattern
		wantErr error
		name    string
	}{
		{name: "nil", pattern: nil, wantErr: ErrNilParameter},
		{name: "unknown kind", pattern: &model.LearnedPattern{Kind: "color", Pattern: "x", TargetValue: "y", Source: model.SourceAuto}, wantErr: ErrInvalidPattern},
		{name: "empty pattern", pattern: &model.LearnedPattern{Kind: model.KindSize, Pattern: " ", TargetValue: "L", Source: model.SourceAuto}, wantErr: ErrInvalidPattern},
		{name: "empty target", pattern: &model.LearnedPattern{Kind: model.KindSize, Pattern: "abc", Source: model.SourceAuto}, wantErr: ErrInvalidPattern},
		{name: "unknown source", pattern: &model.LearnedPattern{Kind: model.KindSize, Pattern: "abc", TargetValue: "L", Source: "import"}, wantErr: ErrInvalidPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.UpsertLearnedPattern(ctx, tt.pattern)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSQLiteStorage_ListLearnedPatterns_Order(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	auto, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind: model.KindSize, Pattern: "auto-frag", TargetValue: "M", Source: model.SourceAuto,
	})
	require.NoError(t, err)
	manual, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind: model.KindSize, Pattern: "manual-frag", TargetValue: "L", Source: model.SourceManual,
	})
	require.NoError(t, err)
	used, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind: model.KindSize, Pattern: "used-frag", TargetValue: "LL", Source: model.SourceManual,
	})
	require.NoError(t, err)
	require.NoError(t, store.ReinforceLearnedPattern(ctx, used.ID))

	patterns, err := store.ListLearnedPatterns(ctx, model.KindSize)
	require.NoError(t, err)
	require.Len(t, patterns, 3)
	assert.Equal(t, []int64{used.ID, manual.ID, auto.ID},
		[]int64{patterns[0].ID, patterns[1].ID, patterns[2].ID})

	byTarget, err := store.ListLearnedPatternsByTarget(ctx, model.KindSize, "L")
	require.NoError(t, err)
	require.Len(t, byTarget, 1)
	assert.Equal(t, manual.ID, byTarget[0].ID)
}

func TestSQLiteStorage_ReinforceLearnedPattern(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	p, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind: model.KindDevice, Pattern: "SC-51D", TargetValue: "Galaxy SC-51D", Auxiliary: "Galaxy", Source: model.SourceAuto,
	})
	require.NoError(t, err)

	require.NoError(t, store.ReinforceLearnedPattern(ctx, p.ID))

	got, err := store.GetLearnedPattern(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)

	err = store.ReinforceLearnedPattern(ctx, 9999)
	assert.ErrorIs(t, err, ErrPatternNotFound)
}

func TestSQLiteStorage_DeleteLearnedPattern(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	p, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind: model.KindDevice, Pattern: "wish4", TargetValue: "AQUOS wish4", Source: model.SourceManual,
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteLearnedPattern(ctx, p.ID))

	_, err = store.GetLearnedPattern(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPatternNotFound)

	err = store.DeleteLearnedPattern(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPatternNotFound)
}

func TestSQLiteStorage_LearnedPatternStats(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	stats, err := store.LearnedPatternStats(ctx, model.KindSize)
	require.NoError(t, err)
	assert.Equal(t, model.PatternStats{Kind: model.KindSize}, *stats)

	for i, source := range []model.PatternSource{model.SourceManual, model.SourceManual, model.SourceAuto} {
		_, err := store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
			Kind: model.KindSize, Pattern: fmt.Sprintf("frag-%d", i), TargetValue: "L", Source: source,
		})
		require.NoError(t, err)
	}
	_, err = store.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		Kind: model.KindSize, Pattern: "frag-0", TargetValue: "L", Source: model.SourceManual,
	})
	require.NoError(t, err)

	stats, err = store.LearnedPatternStats(ctx, model.KindSize)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Manual)
	assert.Equal(t, 1, stats.Auto)
	assert.Equal(t, 4, stats.TotalUsage)
}
