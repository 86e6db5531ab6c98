package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	syncx "github.com/mind-engage/mindengage-alloy/internal/sync"
)

// EventLister reads the event journal.
type EventLister interface {
	List(ctx context.Context, typ string, limit int) ([]syncx.Event, error)
}

// GET /api/events?type=anomaly.detected&limit=50
func ListEventsHandler(events EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := events.List(r.Context(), strings.TrimSpace(q.Get("type")), parseIntDefault(q.Get("limit"), 50))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

type referenceView struct {
	Grades    []alloy.GradeSpec `json:"grades"`
	Materials alloy.Catalog     `json:"materials"`
}

// GET /api/reference returns the active grade tables and addition catalog.
func ReferenceHandler(ref alloy.Reference) http.HandlerFunc {
	view := referenceView{Materials: ref.Materials}
	for _, code := range ref.GradeCodes() {
		g, _ := ref.Grade(code)
		view.Grades = append(view.Grades, g)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, view)
	}
}
