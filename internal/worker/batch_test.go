package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/headrank/internal/model"
)

// mockRunner implements Runner
type mockRunner struct {
	failOn string
}

func (m *mockRunner) Run(ctx context.Context, c model.Collection) (*model.Output, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if c.Name == m.failOn {
		return nil, errors.New("run error")
	}
	return &model.Output{
		Metadata: model.Metadata{Persona: c.Name},
	}, nil
}

func TestBatchProcessor_ProcessCollections(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2)

	cols := []model.Collection{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	results := processor.ProcessCollections(context.Background(), cols)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Collection.Name, res.Error)
			continue
		}
		if res.Output == nil {
			t.Fatalf("expected output for %s", res.Collection.Name)
		}
		if res.Collection.Name != cols[i].Name || res.Output.Metadata.Persona != cols[i].Name {
			t.Errorf("result %d out of order: %s", i, res.Collection.Name)
		}
	}
}

func TestBatchProcessor_ProcessCollections_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{failOn: "bad"}, 2)

	results := processor.ProcessCollections(context.Background(), []model.Collection{{Name: "ok"}, {Name: "bad"}})

	if results[0].GetError() != nil {
		t.Errorf("expected success for first collection, got %v", results[0].Error)
	}
	if results[1].GetError() == nil {
		t.Error("expected error for failing collection")
	}
	if results[1].Output != nil {
		t.Error("expected nil output on error")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2)
	if results := processor.ProcessCollections(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.ProcessCollections(ctx, []model.Collection{{Name: "a"}, {Name: "b"}})
	for _, r := range results {
		if r == nil {
			t.Fatal("expected a result entry for every collection")
		}
		if r.Error == nil {
			t.Errorf("expected cancellation error for %s", r.Collection.Name)
		}
	}
}
