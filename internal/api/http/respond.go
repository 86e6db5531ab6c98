package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-alloy/internal/analysis"
	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	"github.com/mind-engage/mindengage-alloy/internal/storage"
)

const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondError maps domain errors to status codes.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, process.ErrNotFound), errors.Is(err, monitor.ErrNoData):
		respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, process.ErrInvalid),
		errors.Is(err, storage.ErrInvalidKey),
		analysis.Classify(err) == analysis.KindInvalidInput:
		respondMessage(w, http.StatusBadRequest, err.Error())
	default:
		respondMessage(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", process.ErrInvalid)
		}
		return fmt.Errorf("%w: bad json: %v", process.ErrInvalid, err)
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func parseFloatDefault(s string, def float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}
