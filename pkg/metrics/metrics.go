package metrics

import (
	"runtime"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the body size of an HTTP response
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks a request as started
func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight marks a request as finished
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordLayout records one headless layout run from surface (http, graphql
// or batch)
func (r *Registry) RecordLayout(surface, status string, duration time.Duration) {
	r.LayoutsTotal.WithLabelValues(surface, status).Inc()
	r.LayoutDuration.WithLabelValues(surface).Observe(duration.Seconds())
}

// SimulationStarted implements visualization.Observer
func (r *Registry) SimulationStarted(nodes, links int) {
	r.SimulationsTotal.WithLabelValues("started").Inc()
	r.SimulationsActive.Inc()
	r.GraphNodes.Observe(float64(nodes))
	r.GraphLinks.Observe(float64(links))
}

// SimulationCancelled implements visualization.Observer
func (r *Registry) SimulationCancelled() {
	r.SimulationsTotal.WithLabelValues("cancelled").Inc()
	r.SimulationsActive.Dec()
}

// SimulationCompleted implements visualization.Observer
func (r *Registry) SimulationCompleted(ticks int) {
	r.SimulationsTotal.WithLabelValues("completed").Inc()
	r.SimulationsActive.Dec()
	r.SimulationTicks.Observe(float64(ticks))
}

// TickCompleted implements visualization.Observer
func (r *Registry) TickCompleted(d time.Duration) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(d.Seconds())
}

// SnapshotPublished implements visualization.Observer
func (r *Registry) SnapshotPublished() {
	r.SnapshotsPublished.Inc()
}

// StreamOpened tracks a new WebSocket stream
func (r *Registry) StreamOpened() {
	r.StreamsActive.Inc()
}

// StreamClosed tracks a WebSocket stream going away
func (r *Registry) StreamClosed() {
	r.StreamsActive.Dec()
}

// StreamDropped counts a snapshot skipped for a slow stream client
func (r *Registry) StreamDropped() {
	r.StreamMessagesDropped.Inc()
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
