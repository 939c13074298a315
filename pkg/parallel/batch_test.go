package parallel

import (
	"context"
	"errors"
	"testing"

	"github.com/dd0wney/cluso-storymap/pkg/visualization"
)

type vertex string

func (v vertex) LayoutID() string { return string(v) }

type edge [2]string

func (e edge) LayoutEndpoints() (string, string) { return e[0], e[1] }

func seed(n int64) *int64 { return &n }

func TestLayoutBatch(t *testing.T) {
	pool := newPool(t, 3)
	defer pool.Close()

	vp := visualization.Viewport{Width: 800, Height: 600}
	jobs := []Job[vertex, edge]{
		{Nodes: []vertex{"a", "b"}, Edges: []edge{{"a", "b"}}, Viewport: vp, Seed: seed(1)},
		{Nodes: nil, Viewport: vp},
		{Nodes: []vertex{"x", "y", "z"}, Viewport: visualization.Viewport{Width: 400, Height: 300}, Seed: seed(2)},
		{Nodes: []vertex{"a", "b"}, Edges: []edge{{"a", "b"}}, Viewport: vp, Seed: seed(1)},
	}

	results := LayoutBatch(context.Background(), pool, jobs, visualization.DefaultLayoutConfig(), visualization.Options{})
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}

	wantSizes := []int{2, 0, 3, 2}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("job %d: %v", i, r.Err)
			continue
		}
		if len(r.Snapshot.Positions) != wantSizes[i] {
			t.Errorf("job %d: %d positions, want %d", i, len(r.Snapshot.Positions), wantSizes[i])
		}
		if !r.Snapshot.Done {
			t.Errorf("job %d not done", i)
		}
	}

	// same seed, same graph, same answer, whichever worker ran it
	for id, p := range results[0].Snapshot.Positions {
		if results[3].Snapshot.Positions[id] != p {
			t.Errorf("seeded jobs diverged at %s", id)
		}
	}
	if results[0].Snapshot.SimulationID == results[3].Snapshot.SimulationID {
		t.Error("jobs share a simulation id")
	}
}

func TestLayoutBatchCancelled(t *testing.T) {
	pool := newPool(t, 2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job[vertex, edge]{{Nodes: []vertex{"a"}, Viewport: visualization.Viewport{Width: 100, Height: 100}}}
	results := LayoutBatch(ctx, pool, jobs, visualization.DefaultLayoutConfig(), visualization.Options{})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", results[0].Err)
	}
}

func TestLayoutBatchClosedPool(t *testing.T) {
	pool := newPool(t, 1)
	pool.Close()

	jobs := []Job[vertex, edge]{{Nodes: []vertex{"a"}}}
	results := LayoutBatch(context.Background(), pool, jobs, visualization.DefaultLayoutConfig(), visualization.Options{})
	if !errors.Is(results[0].Err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", results[0].Err)
	}
}
