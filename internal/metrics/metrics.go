// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records HTTP-level metrics for the API.
type Collector struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minicrm_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "minicrm_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(c.requests, c.requestLatency)
	return c
}

// RecordRequest counts a finished request.
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

// Handler returns the /metrics scrape endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
