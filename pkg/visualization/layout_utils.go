package visualization

import "math"

// clampAxis limits v to [margin, extent-margin]. When the extent is too
// small to leave any room the axis collapses to its midpoint.
func clampAxis(v, margin, extent float64) float64 {
	lo, hi := margin, extent-margin
	if lo > hi {
		return extent / 2
	}
	if math.IsNaN(v) {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

// integrate damps velocities, moves every body and clamps it into the
// viewport. Damping is applied once per tick before the position update.
func integrate[N Vertex](bodies []Body[N], vp Viewport, cfg LayoutConfig) {
	for i := range bodies {
		b := &bodies[i]
		b.VX *= cfg.Damping
		b.VY *= cfg.Damping
		if !finite(b.VX) || !finite(b.VY) {
			b.VX, b.VY = 0, 0
		}
		b.X = clampAxis(b.X+b.VX, cfg.MarginX, vp.Width)
		b.Y = clampAxis(b.Y+b.VY, cfg.MarginY, vp.Height)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
