package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-alloy/internal/process"
)

// GET /api/alerts?active=true
func ListAlertsHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := r.URL.Query().Get("active") == "true" || r.URL.Query().Get("active") == "1"
		list, err := store.ListAlerts(r.Context(), active)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func ActiveAlertsHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListAlerts(r.Context(), true)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func CreateAlertHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a process.Alert
		if err := decodeJSON(w, r, &a); err != nil {
			respondError(w, err)
			return
		}
		a.ID, a.CreatedAt = "", time.Time{}
		saved, err := store.CreateAlert(r.Context(), a)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}

func GetAlertHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAlert(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}

// POST /api/alerts/{id}/resolve
func ResolveAlertHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.ResolveAlert(r.Context(), chi.URLParam(r, "id"), time.Now())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"status": "resolved", "alert": a})
	}
}
