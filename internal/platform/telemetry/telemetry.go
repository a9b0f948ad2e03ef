// Package telemetry exposes Prometheus metrics for the clinic server: HTTP
// request counts and latencies, record operation outcomes, and database pool
// gauges, served in text exposition format at /metrics.
package telemetry

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/madjik/clinic/internal/platform/db"
)

// Config holds the telemetry settings.
type Config struct {
	Namespace      string
	MetricsEnabled bool
}

// defaultDurationBuckets are the histogram bucket boundaries (in seconds)
// used for HTTP request duration.
var defaultDurationBuckets = []float64{
	0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0,
}

// Provider holds the HTTP and record metrics on its own registry.
type Provider struct {
	cfg      Config
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	active     prometheus.Gauge
	operations *prometheus.CounterVec
}

// NewProvider creates the metric collectors and registers them.
func NewProvider(cfg Config) *Provider {
	if cfg.Namespace == "" {
		cfg.Namespace = "clinic"
	}

	p := &Provider{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   defaultDurationBuckets,
		}, []string{"method", "route"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "http_active_requests",
			Help:      "Number of in-flight HTTP requests.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "record_operations_total",
			Help:      "Record operations by entity, operation and outcome.",
		}, []string{"entity", "operation", "outcome"}),
	}

	p.registry.MustRegister(
		p.requests,
		p.duration,
		p.active,
		p.operations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Enabled reports whether the /metrics endpoint should be mounted.
func (p *Provider) Enabled() bool { return p.cfg.MetricsEnabled }

// RecordOperation counts one record operation. A nil err is an "ok" outcome,
// db.ErrNotFound is "not_found", anything else is "error".
func (p *Provider) RecordOperation(entity, operation string, err error) {
	p.operations.WithLabelValues(entity, operation, Outcome(err)).Inc()
}

// Outcome maps an operation error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, db.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ObservePool exports database pool statistics as gauges evaluated at scrape
// time.
func (p *Provider) ObservePool(stats func() *db.PoolStats) {
	gauge := func(name, help string, value func(*db.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: p.cfg.Namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return value(stats()) })
	}

	p.registry.MustRegister(
		gauge("db_pool_total_connections", "Open database connections.",
			func(s *db.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("db_pool_idle_connections", "Idle database connections.",
			func(s *db.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("db_pool_acquired_connections", "Database connections in use.",
			func(s *db.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("db_pool_max_connections", "Maximum database connections.",
			func(s *db.PoolStats) float64 { return float64(s.MaxConns) }),
	)
}

// MetricsMiddleware returns an Echo middleware that records HTTP server metrics.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.active.Inc()
			defer p.active.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()

			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			p.requests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
			p.duration.WithLabelValues(req.Method, route).Observe(elapsed)
			return err
		}
	}
}

// PrometheusHandler serves the registry in Prometheus text exposition format.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		Registry: p.registry,
	}))
}
