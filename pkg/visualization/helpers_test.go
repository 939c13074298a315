package visualization

import (
	"math"
	"sync"
	"time"
)

type testNode struct {
	id   string
	kind string
}

func (n testNode) LayoutID() string   { return n.id }
func (n testNode) LayoutType() string { return n.kind }

type testLink struct {
	from, to string
	relation string
}

func (l testLink) LayoutEndpoints() (string, string) { return l.from, l.to }
func (l testLink) LayoutLabel() string               { return l.relation }

func nodes(ids ...string) []testNode {
	out := make([]testNode, len(ids))
	for i, id := range ids {
		out[i] = testNode{id: id, kind: "character"}
	}
	return out
}

// fixedRand returns the same value forever; 0.5 means zero jitter
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recorder) Publish(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

type countingObserver struct {
	mu                                       sync.Mutex
	started, cancelled, completed, published int
	ticks                                    int
}

func (o *countingObserver) SimulationStarted(int, int) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *countingObserver) SimulationCancelled() {
	o.mu.Lock()
	o.cancelled++
	o.mu.Unlock()
}

func (o *countingObserver) SimulationCompleted(int) {
	o.mu.Lock()
	o.completed++
	o.mu.Unlock()
}

func (o *countingObserver) TickCompleted(time.Duration) {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()
}

func (o *countingObserver) SnapshotPublished() {
	o.mu.Lock()
	o.published++
	o.mu.Unlock()
}

func (o *countingObserver) counts() (started, cancelled, completed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started, o.cancelled, o.completed
}

// inBox reports whether p respects the margin box of vp
func inBox(p Position, vp Viewport, cfg LayoutConfig) bool {
	return axisOK(p.X, cfg.MarginX, vp.Width) && axisOK(p.Y, cfg.MarginY, vp.Height)
}

func axisOK(v, margin, extent float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if margin > extent-margin {
		return v == extent/2
	}
	return v >= margin && v <= extent-margin
}
