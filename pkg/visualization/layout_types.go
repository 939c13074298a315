package visualization

import "math"

// Vertex is anything the engine can place. LayoutID must be unique within
// one graph.
type Vertex interface {
	LayoutID() string
}

// Edge is anything connecting two vertices. Endpoints are plain ids; a
// link whose ids do not resolve contributes no force.
type Edge interface {
	LayoutEndpoints() (source, target string)
}

// Typed vertices expose a render category (character, location, ...)
type Typed interface {
	LayoutType() string
}

// Labeled edges expose a relation label for renderers
type Labeled interface {
	LayoutLabel() string
}

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between two positions
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Viewport is the drawing surface in pixels
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the viewport has no drawable area
func (v Viewport) Empty() bool {
	return !(v.Width > 0) || !(v.Height > 0)
}

// Center returns the middle of the viewport
func (v Viewport) Center() Position {
	return Position{X: v.Width / 2, Y: v.Height / 2}
}

// Body is a vertex with physical state. Only the simulation mutates it.
type Body[N Vertex] struct {
	Node   N
	X, Y   float64
	VX, VY float64
}

// ID returns the vertex id
func (b *Body[N]) ID() string {
	return b.Node.LayoutID()
}

// Position returns the body's current position
func (b *Body[N]) Position() Position {
	return Position{X: b.X, Y: b.Y}
}

// Snapshot is an immutable copy of every node position at one tick.
// Renderers must tolerate ids missing from Positions.
type Snapshot struct {
	SimulationID string              `json:"simulation_id,omitempty"`
	Tick         int                 `json:"tick"`
	Positions    map[string]Position `json:"positions"`
	Energy       float64             `json:"energy"`
	Done         bool                `json:"done"`
}

// Position looks up one node's position
func (s Snapshot) Position(id string) (Position, bool) {
	p, ok := s.Positions[id]
	return p, ok
}

// State is the scheduler state of a simulation
type State int32

const (
	// StateIdle means no data is loaded, or the data was empty
	StateIdle State = iota
	// StateRunning means ticks are still being scheduled
	StateRunning
	// StateStopped means MaxTicks was reached; positions are final
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
