package visualization

import "math"

// CircularPositions places n points evenly on a circle centered in the
// viewport, the first at the top, each nudged by up to ±Jitter per axis.
// Points are clamped into the viewport's margin box.
func CircularPositions(n int, vp Viewport, cfg LayoutConfig, rng Rand) []Position {
	if n == 0 || vp.Empty() {
		return nil
	}
	cfg = cfg.withDefaults()
	if rng == nil {
		rng = newEntropyRand()
	}

	center := vp.Center()
	radius := math.Min(vp.Width, vp.Height) * cfg.SeedRadius
	angleStep := 2 * math.Pi / float64(n)

	positions := make([]Position, n)
	for i := range positions {
		angle := float64(i)*angleStep - math.Pi/2
		jx := (rng.Float64()*2 - 1) * cfg.Jitter
		jy := (rng.Float64()*2 - 1) * cfg.Jitter
		positions[i] = Position{
			X: clampAxis(center.X+radius*math.Cos(angle)+jx, cfg.MarginX, vp.Width),
			Y: clampAxis(center.Y+radius*math.Sin(angle)+jy, cfg.MarginY, vp.Height),
		}
	}
	return positions
}

// seed places every body of the store on the circle with zero velocity
func (s *Store[N]) seed(vp Viewport, cfg LayoutConfig, rng Rand) {
	positions := CircularPositions(len(s.bodies), vp, cfg, rng)
	for i := range s.bodies {
		b := &s.bodies[i]
		b.X, b.Y = positions[i].X, positions[i].Y
		b.VX, b.VY = 0, 0
	}
}
