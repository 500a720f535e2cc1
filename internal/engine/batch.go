package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchOptions configures batch detection.
type BatchOptions struct {
	// Progress is called once per finished row, possibly concurrently.
	Progress func()
	Workers  int
}

// MethodCounts is a histogram of detection methods.
type MethodCounts map[model.Method]int

// BatchSummary counts the methods that produced each attribute.
type BatchSummary struct {
	ProductType MethodCounts
	Device      MethodCounts
	Size        MethodCounts
}

// BatchResult holds the detections of a batch in input order.
type BatchResult struct {
	Summary  BatchSummary
	JobID    string
	Rows     []model.RowDetection
	Duration time.Duration
}

// DetectBatch detects every row, in parallel per row. Results keep the input
// order. It fails only when ctx is cancelled.
func (e *Engine) DetectBatch(ctx context.Context, rows []model.Row, opts BatchOptions) (*BatchResult, error) {
	start := time.Now()
	jobID := uuid.NewString()

	workers := opts.Workers
	if workers <= 0 {
		workers = e.config.Workers
	}

	slog.Info("Starting batch detection", "job_id", jobID, "rows", len(rows), "workers", workers)

	results := make([]model.RowDetection, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var progressMu sync.Mutex
	for i := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.DetectRow(gctx, rows[i])
			if opts.Progress != nil {
				progressMu.Lock()
				opts.Progress()
				progressMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s interrupted: %w", jobID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch %s interrupted: %w", jobID, err)
	}

	result := &BatchResult{
		JobID:    jobID,
		Rows:     results,
		Summary:  summarize(results),
		Duration: time.Since(start),
	}

	slog.Info("Batch detection complete",
		"job_id", jobID,
		"rows", len(rows),
		"device_not_found", result.Summary.Device[model.MethodNotFound],
		"size_not_found", result.Summary.Size[model.MethodNotFound],
		"product_type_not_found", result.Summary.ProductType[model.MethodNotFound],
		"duration", result.Duration)

	return result, nil
}

func summarize(rows []model.RowDetection) BatchSummary {
	s := BatchSummary{
		ProductType: MethodCounts{},
		Device:      MethodCounts{},
		Size:        MethodCounts{},
	}
	for _, r := range rows {
		s.ProductType[r.ProductType.Method]++
		s.Device[r.Device.Method]++
		s.Size[r.Size.Method]++
	}
	return s
}
