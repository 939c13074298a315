package visualization

import (
	"github.com/quartercastle/vector"
)

// spring is a link whose two endpoints resolved to store slots
type spring struct {
	a, b int
}

// resolveSprings maps edges onto store slots, skipping dangling links
func resolveSprings[N Vertex, E Edge](s *Store[N], edges []E) []spring {
	springs := make([]spring, 0, len(edges))
	for _, e := range edges {
		src, dst := e.LayoutEndpoints()
		a, ok := s.lookup(src)
		if !ok {
			continue
		}
		b, ok := s.lookup(dst)
		if !ok {
			continue
		}
		springs = append(springs, spring{a: a, b: b})
	}
	return springs
}

// separation returns the vector from a to b and its length floored at
// minDist.
func separation(a, b Position, minDist float64) (vector.Vector, float64) {
	delta := vector.Vector{b.X, b.Y}.Sub(vector.Vector{a.X, a.Y})
	dist := delta.Magnitude()
	if dist < minDist {
		dist = minDist
	}
	return delta, dist
}

// RepulsionForce returns the force b receives from a: Repulsion/d² along
// a→b. a receives the exact negation.
func RepulsionForce(a, b Position, cfg LayoutConfig) Position {
	return repulsion(a, b, cfg.withDefaults())
}

func repulsion(a, b Position, cfg LayoutConfig) Position {
	delta, dist := separation(a, b, cfg.MinDistance)
	magnitude := cfg.Repulsion / (dist * dist)
	f := delta.Scale(magnitude / dist)
	return Position{X: f[0], Y: f[1]}
}

// SpringForce returns the force a receives from a link to b. It is
// positive (toward b) when the link is longer than LinkDistance and
// negative when shorter. b receives the exact negation.
func SpringForce(a, b Position, cfg LayoutConfig) Position {
	return springPull(a, b, cfg.withDefaults())
}

func springPull(a, b Position, cfg LayoutConfig) Position {
	delta, dist := separation(a, b, cfg.MinDistance)
	magnitude := (dist - cfg.LinkDistance) * cfg.Attraction
	f := delta.Scale(magnitude / dist)
	return Position{X: f[0], Y: f[1]}
}

// GravityForce pulls p toward center proportionally to its offset
func GravityForce(p, center Position, cfg LayoutConfig) Position {
	return Position{
		X: (center.X - p.X) * cfg.CenterForce,
		Y: (center.Y - p.Y) * cfg.CenterForce,
	}
}

// applyRepulsion accumulates pairwise repulsion into velocities
func applyRepulsion[N Vertex](bodies []Body[N], cfg LayoutConfig) {
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			f := repulsion(bodies[i].Position(), bodies[j].Position(), cfg)
			bodies[i].VX -= f.X
			bodies[i].VY -= f.Y
			bodies[j].VX += f.X
			bodies[j].VY += f.Y
		}
	}
}

// applyAttraction accumulates spring forces for every resolved link
func applyAttraction[N Vertex](bodies []Body[N], springs []spring, cfg LayoutConfig) {
	for _, sp := range springs {
		if sp.a == sp.b {
			continue
		}
		a, b := &bodies[sp.a], &bodies[sp.b]
		f := springPull(a.Position(), b.Position(), cfg)
		a.VX += f.X
		a.VY += f.Y
		b.VX -= f.X
		b.VY -= f.Y
	}
}

// applyGravity pulls every body toward the viewport center
func applyGravity[N Vertex](bodies []Body[N], center Position, cfg LayoutConfig) {
	for i := range bodies {
		f := GravityForce(bodies[i].Position(), center, cfg)
		bodies[i].VX += f.X
		bodies[i].VY += f.Y
	}
}

// accumulateForces adds all three forces into velocities. Positions are
// untouched, so the order of the three passes does not matter.
func accumulateForces[N Vertex](s *Store[N], springs []spring, center Position, cfg LayoutConfig) {
	applyRepulsion(s.bodies, cfg)
	applyAttraction(s.bodies, springs, cfg)
	applyGravity(s.bodies, center, cfg)
}
