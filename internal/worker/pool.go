package worker

import (
	"context"
	"sync"
)

// Handler executes one job
type Handler[J, R any] func(ctx context.Context, job J) R

// Pool runs jobs on a fixed number of workers and returns results in submission order
type Pool[J, R any] struct {
	workers int
	handler Handler[J, R]
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool[J, R any](workers int, handler Handler[J, R]) *Pool[J, R] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[J, R]{
		workers: workers,
		handler: handler,
	}
}

type indexedJob[J any] struct {
	idx int
	job J
}

// Run executes all jobs and blocks until they finish or ctx is cancelled.
// Jobs never started because of cancellation keep the zero R in their slot.
func (p *Pool[J, R]) Run(ctx context.Context, jobs []J) []R {
	results := make([]R, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	queue := make(chan indexedJob[J], p.workers*2)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ij := range queue {
				if ctx.Err() != nil {
					continue
				}
				// Each slot is written by exactly one worker
				results[ij.idx] = p.handler(ctx, ij.job)
			}
		}()
	}

submit:
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			break submit
		case queue <- indexedJob[J]{idx: i, job: job}:
		}
	}
	close(queue)
	wg.Wait()

	return results
}
