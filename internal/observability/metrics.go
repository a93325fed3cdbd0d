// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	NotificationsReceived prometheus.Counter
	NotificationsFiltered *prometheus.CounterVec
	StreamReconnects      prometheus.Counter
	StreamCooldowns       prometheus.Counter

	// Detection metrics
	PoolsDetected        prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
	ResolverRetries      prometheus.Counter
	ResolverFailures     prometheus.Counter

	// Oracle metrics
	PriceRefreshes *prometheus.CounterVec
	SolPriceUSD    prometheus.Gauge

	// Fan-out metrics
	Subscribers       prometheus.Gauge
	EventsBroadcast   *prometheus.CounterVec
	SlowClientsKicked prometheus.Counter

	// Latency metrics
	ResolveLatency prometheus.Histogram
	RPCCallLatency *prometheus.HistogramVec

	// Health metrics
	LastPoolDetected prometheus.Gauge
	TrackedPools     prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pool_tracker"
	}

	return &Metrics{
		// Stream metrics
		NotificationsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "notifications_received_total",
			Help:      "Total number of log notifications received",
		}),
		NotificationsFiltered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "notifications_filtered_total",
			Help:      "Total number of notifications filtered out by reason",
		}, []string{"reason"}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnect attempts",
		}),
		StreamCooldowns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "cooldowns_total",
			Help:      "Total number of reconnect cooldown periods entered",
		}),

		// Detection metrics
		PoolsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "pools_detected_total",
			Help:      "Total number of new liquidity pools detected",
		}),
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "duplicates_suppressed_total",
			Help:      "Total number of duplicate signatures suppressed",
		}),
		ResolverRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "resolver_retries_total",
			Help:      "Total number of transaction resolution retries",
		}),
		ResolverFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "resolver_failures_total",
			Help:      "Total number of signatures unresolved on all endpoints",
		}),

		// Oracle metrics
		PriceRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "price_refreshes_total",
			Help:      "Total number of price refresh attempts by status",
		}, []string{"status"}),
		SolPriceUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "sol_price_usd",
			Help:      "Last cached SOL/USD price",
		}),

		// Fan-out metrics
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Current number of connected WebSocket subscribers",
		}),
		EventsBroadcast: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "events_broadcast_total",
			Help:      "Total number of events broadcast by type",
		}, []string{"event"}),
		SlowClientsKicked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "slow_clients_kicked_total",
			Help:      "Total number of subscribers dropped for unread backlog",
		}),

		// Latency metrics
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "resolve_latency_seconds",
			Help:      "Transaction resolution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Health metrics
		LastPoolDetected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_pool_detected_timestamp",
			Help:      "Unix timestamp of the last detected pool",
		}),
		TrackedPools: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "tracked_pools",
			Help:      "Number of pools with rolling metrics history",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordNotification increments the notifications received counter.
func RecordNotification() {
	DefaultMetrics.NotificationsReceived.Inc()
}

// RecordFiltered records a notification dropped before resolution.
func RecordFiltered(reason string) {
	DefaultMetrics.NotificationsFiltered.WithLabelValues(reason).Inc()
}

// RecordPoolDetected records a newly detected pool.
func RecordPoolDetected(unixSeconds int64) {
	DefaultMetrics.PoolsDetected.Inc()
	DefaultMetrics.LastPoolDetected.Set(float64(unixSeconds))
}

// RecordDuplicate increments the duplicates suppressed counter.
func RecordDuplicate() {
	DefaultMetrics.DuplicatesSuppressed.Inc()
}

// RecordPriceRefresh records a price refresh attempt.
func RecordPriceRefresh(ok bool, price float64) {
	status := "success"
	if !ok {
		status = "failure"
	}
	DefaultMetrics.PriceRefreshes.WithLabelValues(status).Inc()
	if ok {
		DefaultMetrics.SolPriceUSD.Set(price)
	}
}

// RecordBroadcast records a fan-out event by type.
func RecordBroadcast(event string) {
	DefaultMetrics.EventsBroadcast.WithLabelValues(event).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
