package visualization

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display frame at 60 Hz
const DefaultFrameInterval = 16 * time.Millisecond

// Runner drives a Simulation from a frame clock on its own goroutine.
// Exactly one loop mutates the simulation at a time: Load cancels the
// outstanding loop and waits for it to exit before reseeding.
type Runner[N Vertex, E Edge] struct {
	sim      *Simulation[N, E]
	interval time.Duration
	parent   context.Context

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewRunner creates a runner. The loop also stops when ctx is cancelled.
func NewRunner[N Vertex, E Edge](ctx context.Context, sim *Simulation[N, E], interval time.Duration) *Runner[N, E] {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Runner[N, E]{
		sim:      sim,
		interval: interval,
		parent:   ctx,
	}
}

// Load reinitializes the simulation with new data or a new viewport and
// starts a fresh loop if there is anything to lay out.
func (r *Runner[N, E]) Load(nodes []N, edges []E, vp Viewport) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	if r.closed {
		return r.sim.State()
	}

	state := r.sim.Load(nodes, edges, vp)
	if state != StateRunning {
		return state
	}

	ctx, cancel := context.WithCancel(r.parent)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.loop(ctx, done)
	return state
}

func (r *Runner[N, E]) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.sim.Halt()
			return
		case <-ticker.C:
			if !r.sim.Step() {
				return
			}
		}
	}
}

// stopLocked cancels the current loop and blocks until it has returned
func (r *Runner[N, E]) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

// Wait blocks until the current loop finishes on its own or is cancelled
func (r *Runner[N, E]) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the simulation's scheduler state
func (r *Runner[N, E]) State() State {
	return r.sim.State()
}

// Close stops the loop; later Loads are ignored
func (r *Runner[N, E]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	r.closed = true
}

// RunToCompletion steps sim without frame pacing until it stops, returning
// the number of ticks run. A cancelled ctx halts the simulation.
func RunToCompletion[N Vertex, E Edge](ctx context.Context, sim *Simulation[N, E]) (int, error) {
	if err := ctx.Err(); err != nil {
		sim.Halt()
		return sim.Tick(), err
	}
	for sim.Step() {
		if err := ctx.Err(); err != nil {
			sim.Halt()
			return sim.Tick(), err
		}
	}
	return sim.Tick(), nil
}

// Compute lays out one graph headlessly and returns the final snapshot.
func Compute[N Vertex, E Edge](ctx context.Context, nodes []N, edges []E, vp Viewport, cfg LayoutConfig, opts Options) (Snapshot, error) {
	final := &Latest{}
	opts.Publisher = Tee(opts.Publisher, final)

	sim := NewSimulation[N, E](cfg, opts)
	sim.Load(nodes, edges, vp)
	if _, err := RunToCompletion(ctx, sim); err != nil {
		return sim.Snapshot(), err
	}

	snap, ok := final.Load()
	if !ok {
		snap = sim.Snapshot()
	}
	return snap, nil
}
