package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	"github.com/mind-engage/mindengage-alloy/internal/storage"
)

const maxImportBody = 32 << 20

// GET /api/process-data?furnace_id=&since=RFC3339&limit=&offset=&order=asc
func ListProcessDataHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := process.ProcessListOpts{
			FurnaceID: strings.TrimSpace(q.Get("furnace_id")),
			Limit:     parseIntDefault(q.Get("limit"), process.DefaultListLimit),
			Offset:    parseIntDefault(q.Get("offset"), 0),
			Ascending: strings.EqualFold(q.Get("order"), "asc"),
		}
		if s := q.Get("since"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				respondMessage(w, http.StatusBadRequest, "since must be RFC 3339")
				return
			}
			opts.Since = t
		}
		rows, err := store.ListProcessData(r.Context(), opts)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rows)
	}
}

func CreateProcessDataHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p process.ProcessData
		if err := decodeJSON(w, r, &p); err != nil {
			respondError(w, err)
			return
		}
		p.ID = ""
		saved, err := store.AddProcessData(r.Context(), p)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}

func GetProcessDataHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetProcessData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

func DeleteProcessDataHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteProcessData(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/process-data/recent?hours=24 returns newest first.
func RecentProcessDataHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := parseIntDefault(r.URL.Query().Get("hours"), monitor.DefaultHours)
		if hours == 0 {
			hours = monitor.DefaultHours
		}
		rows, err := store.ListProcessData(r.Context(), process.ProcessListOpts{
			Since: time.Now().Add(-time.Duration(hours) * time.Hour),
			Limit: process.MaxListLimit,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rows)
	}
}

// GET /api/process-data/by-furnace?furnace_id=F001
func ProcessDataByFurnaceHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		furnace := strings.TrimSpace(r.URL.Query().Get("furnace_id"))
		if furnace == "" {
			respondMessage(w, http.StatusBadRequest, "furnace_id parameter required")
			return
		}
		rows, err := store.ListProcessData(r.Context(), process.ProcessListOpts{
			FurnaceID: furnace,
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), process.DefaultListLimit),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rows)
	}
}

// POST /api/process-data/import (body: text/csv, or multipart file=...)
//
// The raw upload is archived under imports/<uuid>.csv before parsing so a
// rejected batch can still be inspected.
func ImportProcessDataHandler(store process.Store, bs storage.BlobStore, svc *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readUpload(w, r)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		key, err := bs.Put(r.Context(), "imports/"+uuid.NewString()+".csv", bytes.NewReader(raw))
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, "store error: "+err.Error())
			return
		}
		rows, err := process.ParseCSV(bytes.NewReader(raw))
		if err != nil {
			respondError(w, fmt.Errorf("%s: %w", key, err))
			return
		}
		saved, err := store.AddProcessDataBatch(r.Context(), rows)
		if err != nil {
			respondError(w, err)
			return
		}
		svc.RecordImport(r.Context(), key, len(saved))
		respondJSON(w, http.StatusCreated, map[string]any{"key": key, "imported": len(saved)})
	}
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		r.Body = body
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file required")
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	return raw, nil
}
