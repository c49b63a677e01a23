package worker

import (
	"context"
	"time"

	"github.com/ppiankov/headrank/internal/model"
)

// Runner defines the interface for ranking a single collection
type Runner interface {
	Run(ctx context.Context, c model.Collection) (*model.Output, error)
}

// CollectionResult represents the result of one collection run
type CollectionResult struct {
	Collection model.Collection
	Output     *model.Output
	Error      error
	Duration   time.Duration
}

// GetError returns the error from the collection run
func (r *CollectionResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many collections concurrently.
// Each collection run is itself sequential; only whole runs overlap.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessCollections runs every collection and returns results in input order
func (b *BatchProcessor) ProcessCollections(ctx context.Context, collections []model.Collection) []*CollectionResult {
	if len(collections) == 0 {
		return []*CollectionResult{}
	}

	pool := NewPool(b.concurrency, func(ctx context.Context, c model.Collection) *CollectionResult {
		start := time.Now()
		out, err := b.runner.Run(ctx, c)
		return &CollectionResult{
			Collection: c,
			Output:     out,
			Error:      err,
			Duration:   time.Since(start),
		}
	})

	results := pool.Run(ctx, collections)
	for i, r := range results {
		if r == nil {
			results[i] = &CollectionResult{Collection: collections[i], Error: ctx.Err()}
		}
	}
	return results
}
