package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "internship"

var (
	registry = prometheus.NewRegistry()

	transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Committed application status transitions.",
	}, []string{"operation", "from", "to"})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "errors_total",
		Help:      "Workflow operations that returned an error, by kind.",
	}, []string{"operation", "kind"})

	operationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "operation_seconds",
		Help:      "Workflow operation latency including the database transaction.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"operation"})

	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification dispatch attempts by outcome.",
	}, []string{"outcome"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	httpRequestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		transitionsTotal,
		errorsTotal,
		operationSeconds,
		notificationsTotal,
		httpRequestsTotal,
		httpRequestSeconds,
	)
}

// Registry exposes the collector registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// IncTransition counts a committed status transition.
func IncTransition(operation, from, to string) {
	if from == "" {
		from = "none"
	}
	transitionsTotal.WithLabelValues(operation, from, to).Inc()
}

// IncError counts a failed workflow operation.
func IncError(operation, kind string) {
	errorsTotal.WithLabelValues(operation, kind).Inc()
}

// ObserveOperation records how long a workflow operation took.
func ObserveOperation(operation string, d time.Duration) {
	operationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// IncNotification counts a notification dispatch by outcome ("sent", "failed", "published").
func IncNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records per-route request counts and latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return gin.WrapH(h)
}
