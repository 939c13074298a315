package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/api/middleware"
	"github.com/dd0wney/cluso-storymap/pkg/config"
	"github.com/dd0wney/cluso-storymap/pkg/graphql"
	"github.com/dd0wney/cluso-storymap/pkg/health"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/metrics"
	"github.com/dd0wney/cluso-storymap/pkg/parallel"
	"github.com/dd0wney/cluso-storymap/pkg/pubsub"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by /health
const Version = "0.4.0"

const (
	maxLayoutBody   = 8 << 20
	maxBatchBody    = 64 << 20
	shutdownTimeout = 10 * time.Second
	metricsInterval = 10 * time.Second
)

// routes lists every registered path; anything else is labelled "other"
// in metrics
var routes = []string{"/health", "/health/ready", "/health/live", "/metrics", "/layout", "/layouts/batch", "/layout/stream", "/graphql"}

// Server represents the HTTP API server
type Server struct {
	cfg            config.ServerConfig
	layoutCfg      visualization.LayoutConfig
	logger         logging.Logger
	metrics        *metrics.Registry
	pool           *parallel.WorkerPool
	hub            *pubsub.Hub[visualization.Snapshot]
	graphqlHandler *graphql.GraphQLHandler
	health         *health.Checker
	cors           *middleware.CORSConfig
	upgrader       websocket.Upgrader

	// baseCtx parents every stream session; Close cancels it
	baseCtx context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closed  bool
	streams sync.WaitGroup
	active  atomic.Int64

	closeOnce sync.Once
	startTime time.Time
}

// NewServer creates a new API server. A nil registry gets a private one.
func NewServer(cfg *config.Config, logger logging.Logger, registry *metrics.Registry) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	logger = logger.With(logging.Component("api"))

	pool, err := parallel.NewWorkerPool(cfg.Server.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSOrigins

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg.Server,
		layoutCfg: cfg.Layout,
		logger:    logger,
		metrics:   registry,
		pool:      pool,
		hub:       pubsub.NewHub[visualization.Snapshot](pubsub.DefaultBuffer),
		cors:      cors,
		baseCtx:   baseCtx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16384,
		CheckOrigin:     s.checkOrigin,
	}

	schema, err := graphql.NewSchema(s.validatedLayout("graphql"), cfg.Layout)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("building graphql schema: %w", err)
	}
	s.graphqlHandler = graphql.NewGraphQLHandler(schema, graphql.DefaultMaxDepth, logger)

	s.health = health.NewChecker()
	s.health.RegisterReadiness("shutdown", health.ShutdownCheck(s.isClosed))
	s.health.RegisterReadiness("workers", health.WorkerPoolCheck(pool.Workers(), pool.Closed))
	s.health.RegisterReadiness("streams", health.StreamCheck(s.active.Load, 0))
	s.health.RegisterLiveness("memory", health.MemoryCheck(health.RuntimeMemory))

	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/health/ready", s.health.ReadinessHandler())
	mux.Handle("/health/live", s.health.LivenessHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	mux.Handle("/layout", middleware.BodySizeLimit(maxLayoutBody)(http.HandlerFunc(s.handleLayout)))
	mux.Handle("/layouts/batch", middleware.BodySizeLimit(maxBatchBody)(http.HandlerFunc(s.handleBatchLayout)))
	mux.HandleFunc("/layout/stream", s.handleStream)

	mux.Handle("/graphql", s.graphqlHandler)

	var handler http.Handler = mux
	handler = middleware.SecurityHeaders()(handler)
	handler = middleware.CORS(s.cors)(handler)
	handler = middleware.Metrics(s.metrics, routeLabel)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(s.logger)(handler)
	return handler
}

func routeLabel(r *http.Request) string {
	for _, route := range routes {
		if r.URL.Path == route {
			return route
		}
	}
	return "other"
}

// checkOrigin accepts same-host and configured CORS origins. Clients that
// send no Origin (CLIs, tests) are always accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.cors.OriginAllowed(origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Start serves until ctx is cancelled, then shuts down gracefully and
// closes the server.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go s.updateMetricsPeriodically(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("storymap API listening",
			logging.String("addr", s.cfg.Addr),
			logging.String("version", Version),
			logging.Int("workers", s.pool.Workers()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close ends every stream session, then stops the hub and the worker pool.
// It is safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cancel()
		s.mu.Unlock()

		s.streams.Wait()
		s.hub.Shutdown()
		s.pool.Close()
	})
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) updateMetricsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	s.metrics.UpdateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateSystemMetrics()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Get(func() {
		report := s.health.All()
		code := http.StatusOK
		if report.Status == health.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		s.respondJSON(w, code, HealthResponse{
			Status:    string(report.Status),
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(s.startTime).Round(time.Second).String(),
			Workers:   s.pool.Workers(),
			Streams:   s.active.Load(),
			Checks:    report.Checks,
		})
	}).NotAllowed()
}
