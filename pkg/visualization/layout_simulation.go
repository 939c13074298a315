package visualization

import (
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/google/uuid"
)

// Observer is notified of simulation lifecycle events. The metrics
// registry implements it.
type Observer interface {
	SimulationStarted(nodes, links int)
	SimulationCancelled()
	SimulationCompleted(ticks int)
	TickCompleted(d time.Duration)
	SnapshotPublished()
}

type nopObserver struct{}

func (nopObserver) SimulationStarted(int, int)  {}
func (nopObserver) SimulationCancelled()        {}
func (nopObserver) SimulationCompleted(int)     {}
func (nopObserver) TickCompleted(time.Duration) {}
func (nopObserver) SnapshotPublished()          {}

// Options carries a simulation's collaborators. Every field is optional.
type Options struct {
	// ID names the simulation in snapshots and logs; a UUID by default
	ID string
	// Rand drives seed jitter; time-seeded by default
	Rand      Rand
	Publisher Publisher
	Observer  Observer
	Logger    logging.Logger
}

// Simulation is the force-directed layout state machine for one graph.
// It is single-owner: Load, Step and Halt must not be called concurrently.
// State may be read from any goroutine.
type Simulation[N Vertex, E Edge] struct {
	id        string
	cfg       LayoutConfig
	rng       Rand
	publisher Publisher
	observer  Observer
	logger    logging.Logger

	store    *Store[N]
	springs  []spring
	viewport Viewport
	tick     int
	state    atomic.Int32
}

// NewSimulation creates an idle simulation
func NewSimulation[N Vertex, E Edge](cfg LayoutConfig, opts Options) *Simulation[N, E] {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Rand == nil {
		opts.Rand = newEntropyRand()
	}
	if opts.Publisher == nil {
		opts.Publisher = PublisherFunc(func(Snapshot) {})
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Simulation[N, E]{
		id:        opts.ID,
		cfg:       cfg.withDefaults(),
		rng:       opts.Rand,
		publisher: opts.Publisher,
		observer:  opts.Observer,
		logger:    opts.Logger.With(logging.Component("visualization"), logging.SimulationID(opts.ID)),
	}
}

// ID returns the simulation id
func (s *Simulation[N, E]) ID() string { return s.id }

// Config returns the effective physics constants
func (s *Simulation[N, E]) Config() LayoutConfig { return s.cfg }

// State returns the scheduler state
func (s *Simulation[N, E]) State() State { return State(s.state.Load()) }

// Tick returns the number of ticks run since the last Load
func (s *Simulation[N, E]) Tick() int { return s.tick }

// Viewport returns the viewport of the last Load
func (s *Simulation[N, E]) Viewport() Viewport { return s.viewport }

// Bodies returns a copy of the current physical state
func (s *Simulation[N, E]) Bodies() []Body[N] { return s.store.Bodies() }

// Load discards any in-flight state and seeds a fresh circular layout for
// nodes within vp. An empty node list or an empty viewport leaves the
// simulation idle and publishes an empty snapshot.
func (s *Simulation[N, E]) Load(nodes []N, edges []E, vp Viewport) State {
	if s.State() == StateRunning {
		s.observer.SimulationCancelled()
		s.logger.Debug("superseded running simulation", logging.Tick(s.tick))
	}

	s.tick = 0
	s.viewport = vp
	s.springs = nil

	if len(nodes) == 0 || vp.Empty() {
		s.store = nil
		s.state.Store(int32(StateIdle))
		s.publish(true)
		s.logger.Debug("nothing to lay out",
			logging.NodeCount(len(nodes)), logging.Viewport(vp.Width, vp.Height))
		return StateIdle
	}

	store, dups := newStore(nodes)
	if len(dups) > 0 {
		s.logger.Warn("duplicate node ids dropped", logging.Any("ids", dups))
	}
	store.seed(vp, s.cfg, s.rng)
	s.store = store
	s.springs = resolveSprings(store, edges)

	s.state.Store(int32(StateRunning))
	s.observer.SimulationStarted(store.Len(), len(s.springs))
	s.logger.Debug("simulation seeded",
		logging.NodeCount(store.Len()),
		logging.LinkCount(len(s.springs)),
		logging.Int("dangling_links", len(edges)-len(s.springs)),
		logging.Viewport(vp.Width, vp.Height))
	s.publish(false)
	return StateRunning
}

// Step advances one tick when running and reports whether another frame
// should be scheduled. The tick that brings the counter to MaxTicks is the
// last one: a run performs exactly MaxTicks ticks, not MaxTicks+1 as a
// counter > MaxTicks test would. That tick stops the simulation and
// publishes the final snapshot.
func (s *Simulation[N, E]) Step() bool {
	if s.State() != StateRunning {
		return false
	}
	start := time.Now()

	accumulateForces(s.store, s.springs, s.viewport.Center(), s.cfg)
	integrate(s.store.bodies, s.viewport, s.cfg)
	s.tick++

	final := s.tick >= s.cfg.MaxTicks
	if final {
		s.state.Store(int32(StateStopped))
	}
	if shouldPublish(s.tick, s.cfg.PublishEvery, final) {
		s.publish(final)
	}
	s.observer.TickCompleted(time.Since(start))

	if final {
		s.observer.SimulationCompleted(s.tick)
		s.logger.Debug("simulation stopped",
			logging.Tick(s.tick), logging.Float64("energy", s.store.kineticEnergy()))
		return false
	}
	return true
}

// Halt abandons a running simulation, freezing positions where they are.
// It is a no-op in any other state.
func (s *Simulation[N, E]) Halt() {
	if s.State() != StateRunning {
		return
	}
	s.state.Store(int32(StateIdle))
	s.observer.SimulationCancelled()
	s.logger.Debug("simulation halted", logging.Tick(s.tick))
}

// Snapshot copies the current positions
func (s *Simulation[N, E]) Snapshot() Snapshot {
	return Snapshot{
		SimulationID: s.id,
		Tick:         s.tick,
		Positions:    s.store.positions(),
		Energy:       s.store.kineticEnergy(),
		Done:         s.State() != StateRunning,
	}
}

func (s *Simulation[N, E]) publish(done bool) {
	snap := s.Snapshot()
	snap.Done = done
	s.publisher.Publish(snap)
	s.observer.SnapshotPublished()
}
