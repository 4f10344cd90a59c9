// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kneutral-org/redislock/internal/lock"
)

var (
	// LockActionsTotal tracks lock lifecycle actions by lock name and action kind.
	LockActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redislock_actions_total",
			Help: "Total lock lifecycle actions by name and action",
		},
		[]string{"name", "action"},
	)

	// LocksHeld tracks the number of locks this process currently believes it holds.
	LocksHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redislock_locks_held",
			Help: "Current number of locks held by this process",
		},
	)

	// AcquireWaitDuration tracks how long blocking Acquire calls waited.
	AcquireWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redislock_acquire_wait_seconds",
			Help:    "Time spent waiting inside a blocking acquire call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"name"},
	)

	// CacheOperations tracks GetOrSetUnderLock cache hit/miss/produce outcomes.
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redislock_cache_operations_total",
			Help: "Total cache-adapter operations by result",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal tracks total admin API HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redislock_http_requests_total",
			Help: "Total admin API HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks admin API HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redislock_http_request_duration_seconds",
			Help:    "Admin API HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AuditWriteDuration tracks how long audit-store writes take.
	AuditWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redislock_audit_write_duration_seconds",
			Help:    "Audit trail write duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"store"},
	)
)

// RegisterMetricsEndpoint registers the /metrics endpoint on a Gin router.
func RegisterMetricsEndpoint(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterMetricsEndpointWithPath registers the metrics endpoint at a custom path.
func RegisterMetricsEndpointWithPath(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// MetricsHandler returns the Prometheus HTTP handler.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, path, status string) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(method, path string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordAcquireWait records how long a blocking acquire call waited.
func RecordAcquireWait(name string, seconds float64) {
	AcquireWaitDuration.WithLabelValues(name).Observe(seconds)
}

// RecordCacheOperation records a cache-adapter operation outcome ("hit", "miss", "produce_error").
func RecordCacheOperation(result string) {
	CacheOperations.WithLabelValues(result).Inc()
}

// RecordAuditWrite records an audit-store write duration.
func RecordAuditWrite(store string, seconds float64) {
	AuditWriteDuration.WithLabelValues(store).Observe(seconds)
}

// EventSink adapts lock lifecycle events onto Prometheus counters/gauges. It
// satisfies lock.EventSink.
type EventSink struct{}

// NewEventSink constructs a metrics-backed lock.EventSink.
func NewEventSink() EventSink { return EventSink{} }

// Observe implements lock.EventSink.
func (EventSink) Observe(ev lock.Event) {
	LockActionsTotal.WithLabelValues(ev.LockName, string(ev.Action)).Inc()
	switch ev.Action {
	case lock.ActionAcquired:
		LocksHeld.Inc()
	case lock.ActionReleased, lock.ActionReset:
		LocksHeld.Dec()
	}
}

var _ lock.EventSink = EventSink{}
