package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	factory := promauto.With(r.registry)

	r.SimulationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulation lifecycle events by outcome (started, cancelled, completed)",
		},
		[]string{"outcome"},
	)

	r.SimulationsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulations_active",
			Help:      "Simulations currently running",
		},
	)

	r.SimulationTicks = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_ticks",
			Help:      "Ticks run by completed simulations",
			Buckets:   []float64{10, 50, 100, 200, 500, 1000},
		},
	)

	r.TicksTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		},
	)

	r.TickDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent computing one tick",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
	)

	r.SnapshotsPublished = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Total number of position snapshots published",
		},
	)

	r.GraphNodes = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes per loaded graph",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	r.GraphLinks = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_links",
			Help:      "Resolved links per loaded graph",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	r.LayoutsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Headless layouts by surface and status",
		},
		[]string{"surface", "status"},
	)

	r.LayoutDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Wall time of a headless layout",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"surface"},
	)

	r.StreamsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streams_active",
			Help:      "Open WebSocket layout streams",
		},
	)

	r.StreamMessagesDropped = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_dropped_total",
			Help:      "Snapshots skipped because a stream client fell behind",
		},
	)
}
