package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
)

// GET /api/compositions?grade=&limit=&offset=
func ListCompositionsHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.ListCompositions(r.Context(), process.CompositionListOpts{
			Grade:  strings.TrimSpace(q.Get("grade")),
			Limit:  parseIntDefault(q.Get("limit"), process.DefaultListLimit),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /api/compositions/by-grade?grade=316L
func CompositionsByGradeHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grade := strings.TrimSpace(r.URL.Query().Get("grade"))
		if grade == "" {
			respondMessage(w, http.StatusBadRequest, "grade parameter required")
			return
		}
		list, err := store.ListCompositions(r.Context(), process.CompositionListOpts{Grade: grade, Limit: process.MaxListLimit})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func CreateCompositionHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c process.AlloyComposition
		if err := decodeJSON(w, r, &c); err != nil {
			respondError(w, err)
			return
		}
		c.ID, c.CreatedAt = "", time.Time{}
		saved, err := store.PutComposition(r.Context(), c)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}

func GetCompositionHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetComposition(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// PUT /api/compositions/{id} replaces name, grade, elements and properties.
func UpdateCompositionHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		prev, err := store.GetComposition(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		var c process.AlloyComposition
		if err := decodeJSON(w, r, &c); err != nil {
			respondError(w, err)
			return
		}
		c.ID, c.CreatedAt = prev.ID, prev.CreatedAt
		saved, err := store.PutComposition(r.Context(), c)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, saved)
	}
}

func DeleteCompositionHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteComposition(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/compositions/{id}/score?grade= scores against the record's own
// grade unless one is given.
func ScoreCompositionHandler(store process.Store, svc *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetComposition(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		grade := strings.TrimSpace(r.URL.Query().Get("grade"))
		if grade == "" {
			grade = c.Grade
		}
		res, err := svc.ScoreComposition(r.Context(), c.Elements, grade)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}
