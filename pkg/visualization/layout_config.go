package visualization

import (
	"math/rand"
	"time"
)

// LayoutConfig holds the physics constants of the force simulation.
// Start from DefaultLayoutConfig. Zero values for Damping, MaxTicks,
// PublishEvery, SeedRadius and MinDistance fall back to the defaults;
// every other field may legitimately be zero.
type LayoutConfig struct {
	Repulsion    float64 `yaml:"repulsion" toml:"repulsion" env:"REPULSION" validate:"gte=0"`
	Attraction   float64 `yaml:"attraction" toml:"attraction" env:"ATTRACTION" validate:"gte=0"`
	LinkDistance float64 `yaml:"link_distance" toml:"link_distance" env:"LINK_DISTANCE" validate:"gte=0"`
	CenterForce  float64 `yaml:"center_force" toml:"center_force" env:"CENTER_FORCE" validate:"gte=0"`
	Damping      float64 `yaml:"damping" toml:"damping" env:"DAMPING" validate:"gt=0,lt=1"`
	MaxTicks     int     `yaml:"max_ticks" toml:"max_ticks" env:"MAX_TICKS" validate:"gte=1,lte=100000"`
	PublishEvery int     `yaml:"publish_every" toml:"publish_every" env:"PUBLISH_EVERY" validate:"gte=1"`
	MarginX      float64 `yaml:"margin_x" toml:"margin_x" env:"MARGIN_X" validate:"gte=0"`
	MarginY      float64 `yaml:"margin_y" toml:"margin_y" env:"MARGIN_Y" validate:"gte=0"`
	SeedRadius   float64 `yaml:"seed_radius" toml:"seed_radius" env:"SEED_RADIUS" validate:"gt=0,lte=0.5"`
	Jitter       float64 `yaml:"jitter" toml:"jitter" env:"JITTER" validate:"gte=0"`
	MinDistance  float64 `yaml:"min_distance" toml:"min_distance" env:"MIN_DISTANCE" validate:"gt=0"`
}

// DefaultLayoutConfig returns the tuned constants for story graphs of a
// few dozen entities.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Repulsion:    4000,
		Attraction:   0.04,
		LinkDistance: 80 + 60,
		CenterForce:  0.008,
		Damping:      0.82,
		MaxTicks:     200,
		PublishEvery: 4,
		MarginX:      60,
		MarginY:      40,
		SeedRadius:   0.32,
		Jitter:       20,
		MinDistance:  1,
	}
}

func (c LayoutConfig) withDefaults() LayoutConfig {
	def := DefaultLayoutConfig()
	if c.Damping == 0 {
		c.Damping = def.Damping
	}
	if c.MaxTicks == 0 {
		c.MaxTicks = def.MaxTicks
	}
	if c.PublishEvery == 0 {
		c.PublishEvery = def.PublishEvery
	}
	if c.SeedRadius == 0 {
		c.SeedRadius = def.SeedRadius
	}
	if c.MinDistance == 0 {
		c.MinDistance = def.MinDistance
	}
	return c
}

// Rand is the random source used for seed jitter. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewSeededRand returns a deterministic source for reproducible layouts
func NewSeededRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

func newEntropyRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
