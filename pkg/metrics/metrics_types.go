package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every metric name
const namespace = "storymap"

// Registry holds the collectors of the layout server and engine. It
// implements visualization.Observer and middleware.MetricsRecorder.
type Registry struct {
	// HTTP
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// simulations, layouts and streams
	SimulationsTotal      *prometheus.CounterVec
	SimulationsActive     prometheus.Gauge
	SimulationTicks       prometheus.Histogram
	TicksTotal            prometheus.Counter
	TickDuration          prometheus.Histogram
	SnapshotsPublished    prometheus.Counter
	GraphNodes            prometheus.Histogram
	GraphLinks            prometheus.Histogram
	LayoutsTotal          *prometheus.CounterVec
	LayoutDuration        *prometheus.HistogramVec
	StreamsActive         prometheus.Gauge
	StreamMessagesDropped prometheus.Counter

	// process
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	// mu serializes UpdateSystemMetrics
	mu sync.Mutex
}

// NewRegistry creates a registry with every storymap collector registered.
// Each server owns one, so tests never share counters.
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}
	r.initHTTPMetrics()
	r.initLayoutMetrics()
	r.initSystemMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
