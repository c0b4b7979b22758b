package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseware_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courseware_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	dbQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courseware_db_query_duration_seconds",
			Help:    "Database query latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	dbSlowQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courseware_db_slow_queries_total",
			Help: "Number of queries exceeding the slow-query threshold.",
		},
	)

	analyticsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseware_analytics_events_total",
			Help: "Analytics events emitted, by event name.",
		},
		[]string{"event"},
	)

	taskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseware_task_runs_total",
			Help: "Background task executions by task name and outcome.",
		},
		[]string{"task", "outcome"},
	)
)

// Middleware records request counts and latencies per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveDBQuery records a database query duration.
func ObserveDBQuery(d time.Duration, slow bool) {
	dbQueryDuration.Observe(d.Seconds())
	if slow {
		dbSlowQueries.Inc()
	}
}

// CountAnalyticsEvent increments the emitted-event counter.
func CountAnalyticsEvent(event string) {
	analyticsEventsTotal.WithLabelValues(event).Inc()
}

// CountTaskRun records a background task execution outcome ("ok" or "error").
func CountTaskRun(task, outcome string) {
	taskRunsTotal.WithLabelValues(task, outcome).Inc()
}
