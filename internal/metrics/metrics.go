// Package metrics defines Prometheus metrics for the buyer leads service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buyerleads_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyerleads_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyerleads_errors_total",
			Help: "Total error responses by code",
		},
		[]string{"code"},
	)

	BuyerMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyerleads_buyer_mutations_total",
			Help: "Committed buyer mutations by action",
		},
		[]string{"action"},
	)

	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyerleads_import_rows_total",
			Help: "Imported CSV rows by result",
		},
		[]string{"result"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "buyerleads_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		BuyerMutations, ImportRows, WSConnections,
	)
}
