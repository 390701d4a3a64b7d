package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

// Metrics holds the catalog collectors on a private registry. It implements
// memecatalog.Observer.
type Metrics struct {
	registry          *prometheus.Registry
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	compensations     *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

// New registers the catalog collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memecatalog_operations_total",
		Help: "Total number of coordinator operations by operation and outcome",
	}, []string{"op", "outcome"})

	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memecatalog_operation_duration_seconds",
		Help:    "Duration of coordinator operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memecatalog_blob_compensations_total",
		Help: "Blob cleanups after failed metadata inserts; outcome=orphaned counts leaked blobs",
	}, []string{"outcome"})

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memecatalog_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	reg.MustRegister(
		operations,
		operationDuration,
		compensations,
		httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:          reg,
		operations:        operations,
		operationDuration: operationDuration,
		compensations:     compensations,
		httpRequests:      httpRequests,
	}
}

// RecordOperation counts a coordinator operation and observes its duration
func (m *Metrics) RecordOperation(op, outcome string, seconds float64) {
	m.operations.WithLabelValues(op, outcome).Inc()
	m.operationDuration.WithLabelValues(op).Observe(seconds)
}

// RecordCompensation counts a blob cleanup after a failed insert
func (m *Metrics) RecordCompensation(outcome string) {
	m.compensations.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest counts a completed request by route pattern
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the private registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ memecatalog.Observer = (*Metrics)(nil)
