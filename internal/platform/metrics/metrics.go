// Package metrics collects and exposes Prometheus metrics for the HTTP
// services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records the request-level metrics every service
// shares.
type Collector struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry so services never
// collide on metric names in tests.
func NewCollector(service string) *Collector {
	c := &Collector{reg: prometheus.NewRegistry()}

	labels := prometheus.Labels{"service": service}
	c.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "truetales_http_requests_total",
		Help:        "HTTP requests by method and status code.",
		ConstLabels: labels,
	}, []string{"method", "code"})
	c.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "truetales_http_request_duration_seconds",
		Help:        "HTTP request latency in seconds.",
		ConstLabels: labels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"method"})

	c.reg.MustRegister(c.requests, c.latency)
	return c
}

// Middleware records count and latency for every request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		c.requests.WithLabelValues(r.Method, strconv.Itoa(sw.code)).Inc()
		c.latency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
