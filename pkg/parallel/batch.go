package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/visualization"
)

// Job is one graph of a batch layout
type Job[N visualization.Vertex, E visualization.Edge] struct {
	Nodes    []N
	Edges    []E
	Viewport visualization.Viewport
	// Seed makes the layout reproducible; nil seeds from the clock
	Seed *int64
}

// Result is the outcome of one Job, at the same index as its job
type Result struct {
	Snapshot visualization.Snapshot
	Duration time.Duration
	Err      error
}

// LayoutBatch computes every job on the pool and waits for all of them.
// Each job runs its own simulation; opts.Observer and opts.Logger are shared
// and must be safe for concurrent use. opts.Publisher and opts.ID are
// ignored.
func LayoutBatch[N visualization.Vertex, E visualization.Edge](ctx context.Context, pool *WorkerPool, jobs []Job[N, E], cfg visualization.LayoutConfig, opts visualization.Options) []Result {
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		job := jobs[i]
		slot := &results[i]

		jobOpts := opts
		jobOpts.ID = ""
		jobOpts.Publisher = nil
		jobOpts.Rand = nil
		if job.Seed != nil {
			jobOpts.Rand = visualization.NewSeededRand(*job.Seed)
		}

		wg.Add(1)
		submitted := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				slot.Err = err
				return
			}
			start := time.Now()
			slot.Snapshot, slot.Err = visualization.Compute(ctx, job.Nodes, job.Edges, job.Viewport, cfg, jobOpts)
			slot.Duration = time.Since(start)
		})
		if !submitted {
			wg.Done()
			slot.Err = ErrPoolClosed
		}
	}

	wg.Wait()
	return results
}
