package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minicrm/server/internal/metrics"
	"github.com/minicrm/server/internal/testutil"
)

func TestLogging_PassesThrough(t *testing.T) {
	mw := NewLogging(testutil.MakeNoopLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	mw.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	mw := NewLogging(testutil.MakeNoopLogger())

	// handler that never calls WriteHeader explicitly
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	})

	rec := httptest.NewRecorder()
	mw.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics_RecordsRequest(t *testing.T) {
	collector := metrics.NewCollector()
	mw := NewMetrics(collector)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	mw.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))

	require.Equal(t, http.StatusCreated, rec.Code)

	exposition := httptest.NewRecorder()
	collector.Handler().ServeHTTP(exposition, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, exposition.Body.String(), `minicrm_http_requests_total{method="POST",status_code="201"} 1`)
}
