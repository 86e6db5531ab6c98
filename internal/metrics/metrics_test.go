package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveScore("316L", 90)
	m.ObserveAnomaly("high")
	m.ObserveRecommendation("FeCr 65%")

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.ObserveScore("316L", 92.5)
	m.ObserveScore("316L", 70)
	m.ObserveAnomaly("medium")
	m.ObserveRecommendation("Ni Metal")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.qualityScores.WithLabelValues("316L")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.anomalies.WithLabelValues("medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("Ni Metal")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/alerts/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/alerts/"+id, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/alerts/{id}", "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `alloy_http_requests_total{method="GET",route="/api/alerts/{id}",status="404"} 2`))
}
