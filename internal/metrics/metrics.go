// Package metrics exposes Prometheus collectors for the mint flow, node RPC and HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mintforge"

// Metrics owns a private registry so tests can build as many as they like
type Metrics struct {
	registry *prometheus.Registry

	mints           *prometheus.CounterVec
	mintDuration    prometheus.Histogram
	rpcRequests     *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
	pinnedBytes     prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	cacheOperations *prometheus.CounterVec
}

// New registers all collectors
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.mints = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mint",
		Name:      "total",
		Help:      "Mint attempts by final status",
	}, []string{"status"})

	m.mintDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "mint",
		Name:      "duration_seconds",
		Help:      "Time from prepare to the final status of a mint",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	m.rpcRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "JSON-RPC calls to the node",
	}, []string{"method", "status"})

	m.rpcDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "JSON-RPC call latency",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method"})

	m.pinnedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pinning",
		Name:      "bytes_total",
		Help:      "Bytes uploaded to the pinning service",
	})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP API requests",
	}, []string{"method", "route", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP API latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.cacheOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Query cache hits, misses and invalidations",
	}, []string{"result"})

	m.registry.MustRegister(
		m.mints, m.mintDuration,
		m.rpcRequests, m.rpcDuration,
		m.pinnedBytes,
		m.httpRequests, m.httpDuration,
		m.cacheOperations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveMint records the final status of one mint and its age since prepare
func (m *Metrics) ObserveMint(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(status).Inc()
	if d > 0 {
		m.mintDuration.Observe(d.Seconds())
	}
}

// ObserveRPC records one node call
func (m *Metrics) ObserveRPC(method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.rpcRequests.WithLabelValues(method, status).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// AddPinnedBytes counts uploaded image bytes
func (m *Metrics) AddPinnedBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.pinnedBytes.Add(float64(n))
}

// CacheResult counts a cache hit, miss or invalidation
func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheOperations.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
