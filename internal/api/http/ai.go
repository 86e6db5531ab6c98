package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/monitor"
)

type recommendRequest struct {
	Target  alloy.Composition `json:"target_composition"`
	Current alloy.Composition `json:"current_composition"`
}

// POST /api/ai/recommendations
func RecommendationsHandler(svc *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommendRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		if len(req.Target) == 0 || len(req.Current) == 0 {
			respondMessage(w, http.StatusBadRequest, "Both target_composition and current_composition are required")
			return
		}
		rep, err := svc.Recommend(r.Context(), req.Target, req.Current)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}

// GET /api/ai/quality-analysis?hours=24&furnace_id=&grade=
func QualityAnalysisHandler(svc *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rep, err := svc.QualityAnalysis(r.Context(), monitor.Query{
			Hours:     parseIntDefault(q.Get("hours"), monitor.DefaultHours),
			FurnaceID: strings.TrimSpace(q.Get("furnace_id")),
			Grade:     strings.TrimSpace(q.Get("grade")),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}

type scoreRequest struct {
	Composition alloy.Composition `json:"composition"`
	Grade       string            `json:"grade"`
}

// POST /api/ai/score
func ScoreHandler(svc *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		res, err := svc.ScoreComposition(r.Context(), req.Composition, strings.TrimSpace(req.Grade))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// GET /api/dashboard/metrics
func DashboardHandler(svc *monitor.Service, lowStockThreshold float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Dashboard(r.Context(), lowStockThreshold)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}
