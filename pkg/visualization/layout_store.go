package visualization

// Store holds the mutable physical state of every node, indexed by id.
// It is owned by one Simulation and never handed to renderers directly.
type Store[N Vertex] struct {
	bodies []Body[N]
	index  map[string]int
}

// newStore builds bodies for nodes in input order. Later nodes repeating an
// earlier id are dropped and returned so the caller can report them.
func newStore[N Vertex](nodes []N) (*Store[N], []string) {
	s := &Store[N]{
		bodies: make([]Body[N], 0, len(nodes)),
		index:  make(map[string]int, len(nodes)),
	}
	var dups []string
	for _, n := range nodes {
		id := n.LayoutID()
		if _, exists := s.index[id]; exists {
			dups = append(dups, id)
			continue
		}
		s.index[id] = len(s.bodies)
		s.bodies = append(s.bodies, Body[N]{Node: n})
	}
	return s, dups
}

// Len returns the number of bodies
func (s *Store[N]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bodies)
}

// lookup returns the slot for id
func (s *Store[N]) lookup(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Body returns a copy of the body for id
func (s *Store[N]) Body(id string) (Body[N], bool) {
	if s == nil {
		return Body[N]{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Body[N]{}, false
	}
	return s.bodies[i], true
}

// Bodies returns a copy of all bodies in input order
func (s *Store[N]) Bodies() []Body[N] {
	if s == nil {
		return nil
	}
	out := make([]Body[N], len(s.bodies))
	copy(out, s.bodies)
	return out
}

// positions copies the current positions into a fresh map
func (s *Store[N]) positions() map[string]Position {
	out := make(map[string]Position, s.Len())
	if s == nil {
		return out
	}
	for i := range s.bodies {
		b := &s.bodies[i]
		out[b.ID()] = b.Position()
	}
	return out
}

// kineticEnergy sums v² over all bodies
func (s *Store[N]) kineticEnergy() float64 {
	if s == nil {
		return 0
	}
	var e float64
	for i := range s.bodies {
		b := &s.bodies[i]
		e += b.VX*b.VX + b.VY*b.VY
	}
	return e
}
