package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	echo := func(ctx context.Context, n int) int { return n }

	if p := NewPool(5, echo); p.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p.workers)
	}
	if p := NewPool(0, echo); p.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p.workers)
	}
	if p := NewPool(-1, echo); p.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p.workers)
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool(3, func(ctx context.Context, n int) int {
		// Later jobs finish first
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		return n * n
	})

	jobs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	results := pool.Run(context.Background(), jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, n := range jobs {
		if results[i] != n*n {
			t.Errorf("slot %d: expected %d, got %d", i, n*n, results[i])
		}
	}
}

func TestPool_Concurrency(t *testing.T) {
	var active, peak int32
	pool := NewPool(2, func(ctx context.Context, n int) int {
		cur := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return n
	})

	pool.Run(context.Background(), []int{1, 2, 3, 4, 5, 6})

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("expected at most 2 concurrent jobs, saw %d", p)
	}
}

func TestPool_Empty(t *testing.T) {
	pool := NewPool(2, func(ctx context.Context, n int) int { return n })
	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestPool_Cancelled(t *testing.T) {
	var executed int32
	pool := NewPool(1, func(ctx context.Context, n int) int {
		atomic.AddInt32(&executed, 1)
		return n
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Run(ctx, []int{1, 2, 3})
	if len(results) != 3 {
		t.Fatalf("expected result slots for every job, got %d", len(results))
	}
	if n := atomic.LoadInt32(&executed); n != 0 {
		t.Errorf("expected no jobs to run after cancellation, ran %d", n)
	}
}
