package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	qualityScores   *prometheus.CounterVec
	qualityScore    prometheus.Histogram
	anomalies       *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry: registry,

		qualityScores: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "alloy_quality_scores_total",
				Help: "Compositions scored against a grade",
			},
			[]string{"grade"},
		),
		qualityScore: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alloy_quality_score",
				Help:    "Distribution of composition quality scores",
				Buckets: []float64{50, 60, 70, 80, 85, 90, 95, 100},
			},
		),
		anomalies: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "alloy_anomalies_total",
				Help: "Temperature anomalies detected",
			},
			[]string{"severity"},
		),
		recommendations: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "alloy_recommendations_total",
				Help: "Material additions recommended",
			},
			[]string{"material"},
		),
		httpRequests: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "alloy_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alloy_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) ObserveScore(grade string, score float64) {
	if m == nil {
		return
	}
	m.qualityScores.WithLabelValues(grade).Inc()
	m.qualityScore.Observe(score)
}

func (m *Metrics) ObserveAnomaly(severity string) {
	if m == nil {
		return
	}
	m.anomalies.WithLabelValues(severity).Inc()
}

func (m *Metrics) ObserveRecommendation(material string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(material).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern so path parameters do
// not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
