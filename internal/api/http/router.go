package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/logging"
	"github.com/mind-engage/mindengage-alloy/internal/metrics"
	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	"github.com/mind-engage/mindengage-alloy/internal/storage"
)

// Deps are the collaborators NewRouter mounts. Blobs, Events, Metrics and
// Ready are optional.
type Deps struct {
	Store     process.Store
	Monitor   *monitor.Service
	Reference alloy.Reference
	Blobs     storage.BlobStore
	Events    EventLister
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Ready     func(ctx context.Context) error

	CORSOrigins       []string
	LowStockThreshold float64
	RequestTimeout    time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.LowStockThreshold <= 0 {
		d.LowStockThreshold = monitor.DefaultLowStock
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(d.Log), d.Metrics.Middleware, middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				respondMessage(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		w.WriteHeader(200)
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(ar chi.Router) {
		ar.Route("/compositions", func(cr chi.Router) {
			cr.Get("/", ListCompositionsHandler(d.Store))
			cr.Post("/", CreateCompositionHandler(d.Store))
			cr.Get("/by-grade", CompositionsByGradeHandler(d.Store))
			cr.Get("/{id}", GetCompositionHandler(d.Store))
			cr.Put("/{id}", UpdateCompositionHandler(d.Store))
			cr.Delete("/{id}", DeleteCompositionHandler(d.Store))
			cr.Get("/{id}/score", ScoreCompositionHandler(d.Store, d.Monitor))
		})

		ar.Route("/process-data", func(pr chi.Router) {
			pr.Get("/", ListProcessDataHandler(d.Store))
			pr.Post("/", CreateProcessDataHandler(d.Store))
			pr.Get("/recent", RecentProcessDataHandler(d.Store))
			pr.Get("/by-furnace", ProcessDataByFurnaceHandler(d.Store))
			if d.Blobs != nil {
				pr.Post("/import", ImportProcessDataHandler(d.Store, d.Blobs, d.Monitor))
			}
			pr.Get("/{id}", GetProcessDataHandler(d.Store))
			pr.Delete("/{id}", DeleteProcessDataHandler(d.Store))
		})

		ar.Route("/inventory", func(ir chi.Router) {
			ir.Get("/", ListInventoryHandler(d.Store))
			ir.Post("/", CreateInventoryHandler(d.Store))
			ir.Get("/low-stock", LowStockHandler(d.Store, d.LowStockThreshold))
			ir.Get("/{id}", GetInventoryHandler(d.Store))
			ir.Put("/{id}", UpdateInventoryHandler(d.Store))
			ir.Delete("/{id}", DeleteInventoryHandler(d.Store))
		})

		ar.Route("/alerts", func(lr chi.Router) {
			lr.Get("/", ListAlertsHandler(d.Store))
			lr.Post("/", CreateAlertHandler(d.Store))
			lr.Get("/active", ActiveAlertsHandler(d.Store))
			lr.Get("/{id}", GetAlertHandler(d.Store))
			lr.Post("/{id}/resolve", ResolveAlertHandler(d.Store))
		})

		ar.Post("/ai/recommendations", RecommendationsHandler(d.Monitor))
		ar.Get("/ai/quality-analysis", QualityAnalysisHandler(d.Monitor))
		ar.Post("/ai/score", ScoreHandler(d.Monitor))
		ar.Get("/dashboard/metrics", DashboardHandler(d.Monitor, d.LowStockThreshold))
		ar.Get("/reference", ReferenceHandler(d.Reference))

		if d.Events != nil {
			ar.Get("/events", ListEventsHandler(d.Events))
		}
		if d.Blobs != nil {
			ar.Route("/assets", func(br chi.Router) {
				MountAssets(br, d.Blobs)
			})
		}
	})
	return r
}
