package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline and API metrics with Prometheus.
type Recorder struct {
	jobsTotal     *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates a Recorder registered on reg. Pass prometheus.DefaultRegisterer in services.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		jobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zone_analyzer_jobs_total",
				Help: "Total number of analysis jobs by strategy and outcome",
			},
			[]string{"strategy", "status"},
		),
		fallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zone_analyzer_vision_fallback_total",
				Help: "Total number of timeframe analyses that did not come from a clean vision reply",
			},
			[]string{"strategy", "role", "source"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zone_analyzer_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zone_analyzer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zone_analyzer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// RecordJob counts a finished job. status is the decision status or "failed".
func (r *Recorder) RecordJob(strategy, status string) {
	r.jobsTotal.WithLabelValues(strategy, status).Inc()
}

// RecordFallback counts a timeframe result produced by the extractor or the local fallback.
func (r *Recorder) RecordFallback(strategy, role, source string) {
	r.fallbackTotal.WithLabelValues(strategy, role, source).Inc()
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, since time.Time) {
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(since).Seconds())
}

// EchoMiddleware records request counts and latency labelled by the route template.
func (r *Recorder) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			r.httpRequests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
