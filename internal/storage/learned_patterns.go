package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/accusync/internal/model"
)

const learnedPatternColumns = `id, kind, pattern, target_value, auxiliary, confidence, source,
	usage_count, created_at, updated_at`

// UpsertLearnedPattern inserts a new pattern at its starting confidence or,
// when (kind, pattern, target_value, auxiliary) already exists, reinforces it.
// The single statement keeps concurrent learns from creating duplicates.
func (s *SQLiteStorage) UpsertLearnedPattern(ctx context.Context, p *model.LearnedPattern) (*model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLearnedPattern(p); err != nil {
		return nil, err
	}

	confidence := p.Confidence
	if confidence <= 0 {
		confidence = p.Source.StartConfidence()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO learned_patterns (kind, pattern, target_value, auxiliary, confidence, source, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(kind, pattern, target_value, auxiliary) DO UPDATE SET
			confidence = MIN(learned_patterns.confidence + ?, ?),
			usage_count = learned_patterns.usage_count + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, p.Kind, strings.TrimSpace(p.Pattern), strings.TrimSpace(p.TargetValue), strings.TrimSpace(p.Auxiliary),
		min(confidence, model.MaxConfidence), p.Source, model.ConfidenceStep, model.MaxConfidence).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert learned pattern: %w", err)
	}

	return s.GetLearnedPattern(ctx, id)
}

// GetLearnedPattern retrieves a learned pattern by ID.
func (s *SQLiteStorage) GetLearnedPattern(ctx context.Context, id int64) (*model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+learnedPatternColumns+` FROM learned_patterns WHERE id = ?`, id)

	p, err := scanLearnedPattern(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrPatternNotFound, id)
		}
		return nil, fmt.Errorf("failed to get learned pattern: %w", err)
	}
	return p, nil
}

// ListLearnedPatterns returns every pattern of a kind in prediction order:
// confidence, then usage count, both descending.
func (s *SQLiteStorage) ListLearnedPatterns(ctx context.Context, kind model.PatternKind) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+learnedPatternColumns+`
		FROM learned_patterns
		WHERE kind = ?
		ORDER BY confidence DESC, usage_count DESC, id ASC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectLearnedPatterns(rows)
}

// ListLearnedPatternsByTarget returns the patterns of a kind that map to target.
func (s *SQLiteStorage) ListLearnedPatternsByTarget(ctx context.Context, kind model.PatternKind, target string) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateString(target, "target"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+learnedPatternColumns+`
		FROM learned_patterns
		WHERE kind = ? AND target_value = ?
		ORDER BY confidence DESC, usage_count DESC, id ASC
	`, kind, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned patterns by target: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectLearnedPatterns(rows)
}

// ReinforceLearnedPattern records a successful prediction: usage +1 and
// confidence +0.05, capped at 1.0.
func (s *SQLiteStorage) ReinforceLearnedPattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET usage_count = usage_count + 1,
			confidence = MIN(confidence + ?, ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, model.ConfidenceStep, model.MaxConfidence, id)
	if err != nil {
		return fmt.Errorf("failed to reinforce learned pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrPatternNotFound, id)
	}
	return nil
}

// DeleteLearnedPattern removes a pattern.
func (s *SQLiteStorage) DeleteLearnedPattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM learned_patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete learned pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrPatternNotFound, id)
	}
	return nil
}

// LearnedPatternStats summarizes the patterns of one kind.
func (s *SQLiteStorage) LearnedPatternStats(ctx context.Context, kind model.PatternKind) (*model.PatternStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	stats := &model.PatternStats{Kind: kind}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN source = 'manual' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = 'auto' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM learned_patterns
		WHERE kind = ?
	`, kind).Scan(&stats.Total, &stats.Manual, &stats.Auto, &stats.TotalUsage)
	if err != nil {
		return nil, fmt.Errorf("failed to get learned pattern stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLearnedPattern(row rowScanner) (*model.LearnedPattern, error) {
	var p model.LearnedPattern
	var createdAt, updatedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.Kind, &p.Pattern, &p.TargetValue, &p.Auxiliary, &p.Confidence, &p.Source,
		&p.UsageCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}

func collectLearnedPatterns(rows *sql.Rows) ([]model.LearnedPattern, error) {
	var patterns []model.LearnedPattern
	for rows.Next() {
		p, err := scanLearnedPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learned pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learned patterns: %w", err)
	}
	return patterns, nil
}
