package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	tcpConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bytectl",
			Subsystem: "tcp",
			Name:      "connections_total",
			Help:      "Total accepted line protocol connections.",
		},
	)
	tcpActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bytectl",
			Subsystem: "tcp",
			Name:      "active_connections",
			Help:      "Line protocol connections currently owned by a handler.",
		},
	)
	tcpQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytectl",
			Subsystem: "tcp",
			Name:      "queries_total",
			Help:      "Queries received, by classification outcome.",
		},
		[]string{"outcome"},
	)
	tcpSessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bytectl",
			Subsystem: "tcp",
			Name:      "session_duration_seconds",
			Help:      "Line protocol session lifetime in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"reason"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"group", "route", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bytectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"group", "route", "method", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(tcpConnections, tcpActive, tcpQueries, tcpSessionDuration, httpRequests, httpDuration)
	})
}

// RecordConnectionOpened counts one accepted connection and marks it active.
func RecordConnectionOpened() {
	RegisterMetrics()
	tcpConnections.Inc()
	tcpActive.Inc()
}

// RecordConnectionClosed releases one active slot and observes the session lifetime.
func RecordConnectionClosed(reason string, lifetime time.Duration) {
	RegisterMetrics()
	tcpActive.Dec()
	tcpSessionDuration.WithLabelValues(reason).Observe(lifetime.Seconds())
}

func RecordQuery(outcome string) {
	RegisterMetrics()
	tcpQueries.WithLabelValues(outcome).Inc()
}

func RecordHTTPRequest(group, route, method string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(group, route, method, statusLabel).Inc()
	httpDuration.WithLabelValues(group, route, method, statusLabel).Observe(duration.Seconds())
}
