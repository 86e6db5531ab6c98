package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-alloy/internal/process"
)

func ListInventoryHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListInventory(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}

func CreateInventoryHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var it process.InventoryItem
		if err := decodeJSON(w, r, &it); err != nil {
			respondError(w, err)
			return
		}
		it.ID = ""
		saved, err := store.PutInventory(r.Context(), it)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}

func GetInventoryHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := store.GetInventory(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, it)
	}
}

func UpdateInventoryHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := store.GetInventory(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		var it process.InventoryItem
		if err := decodeJSON(w, r, &it); err != nil {
			respondError(w, err)
			return
		}
		it.ID = id
		saved, err := store.PutInventory(r.Context(), it)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, saved)
	}
}

func DeleteInventoryHandler(store process.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteInventory(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/inventory/low-stock?threshold=100
func LowStockHandler(store process.Store, defaultThreshold float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold := parseFloatDefault(r.URL.Query().Get("threshold"), defaultThreshold)
		items, err := store.FetchLowStock(r.Context(), threshold)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}
