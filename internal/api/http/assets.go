package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-alloy/internal/storage"
)

// MountAssets serves archived uploads from the blob store.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// GET /api/assets/url/*  -> {"url": signed or file URL}
	r.Get("/url/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		u, err := bs.SignedURL(r.Context(), key)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"key": key, "url": u})
	})

	// GET /api/assets/*   -> returns the blob at whatever follows /api/assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")        // everything after /api/assets/
		key = strings.TrimPrefix(key, "/") // normalize
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			respondMessage(w, http.StatusNotFound, "not found: "+key)
			return
		}
		defer rc.Close()
		ct := "application/octet-stream"
		if strings.HasSuffix(key, ".csv") {
			ct = "text/csv"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
