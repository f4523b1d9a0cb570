package middleware

import (
	"net/http"
	"time"

	"github.com/minicrm/server/internal/metrics"
)

// Metrics records request counts and latency per response.
type Metrics struct {
	collector *metrics.Collector
}

// NewMetrics creates a new Metrics middleware.
func NewMetrics(collector *metrics.Collector) *Metrics {
	return &Metrics{collector: collector}
}

// Handle observes every request passing through.
func (m *Metrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.collector.RecordRequest(r.Method, rec.status, time.Since(start))
	})
}
