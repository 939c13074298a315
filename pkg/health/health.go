// Package health runs readiness and liveness checks for the layout server.
package health

import (
	"time"
)

// NewChecker creates a checker with no checks; an empty set is healthy
func NewChecker() *Checker {
	return &Checker{
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
	}
}

// RegisterReadiness adds a check that must pass before traffic is routed here
func (c *Checker) RegisterReadiness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyChecks[name] = check
}

// RegisterLiveness adds a check that fails only when the process should be
// restarted
func (c *Checker) RegisterLiveness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveChecks[name] = check
}

// Readiness runs the readiness checks
func (c *Checker) Readiness() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return run(c.readyChecks)
}

// Liveness runs the liveness checks
func (c *Checker) Liveness() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return run(c.liveChecks)
}

// All runs readiness and liveness checks together
func (c *Checker) All() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	merged := make(map[string]CheckFunc, len(c.readyChecks)+len(c.liveChecks))
	for name, fn := range c.liveChecks {
		merged[name] = fn
	}
	for name, fn := range c.readyChecks {
		merged[name] = fn
	}
	return run(merged)
}

func run(checks map[string]CheckFunc) Response {
	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
	}

	for name, fn := range checks {
		start := time.Now()
		check := fn()
		check.Name = name
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check

		response.Status = worse(response.Status, check.Status)
	}
	return response
}

func worse(a, b Status) Status {
	if a == StatusUnhealthy || b == StatusUnhealthy {
		return StatusUnhealthy
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
