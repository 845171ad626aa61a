package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of the service
var Registry = prometheus.NewRegistry()

var (
	// StoreOperations counts record store operations by collection, operation and result
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelplanner",
			Name:      "store_operations_total",
			Help:      "Record store operations by collection, operation and result",
		},
		[]string{"collection", "op", "result"},
	)

	// CacheLookups counts TTL cache lookups by cache name and result
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelplanner",
			Name:      "cache_lookups_total",
			Help:      "TTL cache lookups by cache and result (hit, miss, reload_error)",
		},
		[]string{"cache", "result"},
	)

	// HTTPRequests counts HTTP requests by method, route and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelplanner",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration observes HTTP request latency
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travelplanner",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CommentSubscribers tracks open comment feed connections
	CommentSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "travelplanner",
			Name:      "comment_feed_subscribers",
			Help:      "Open WebSocket subscriptions to comment feeds",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		StoreOperations,
		CacheLookups,
		HTTPRequests,
		HTTPDuration,
		CommentSubscribers,
	)
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
