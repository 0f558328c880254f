package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-intake/internal/logging"
	"media-intake/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// ListHistory returns the most recent intake events, newest first.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		logging.Error("failed to list intake history: %v", err)
		writeJSONError(w, "Failed to list history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, map[string]any{"events": events})
}

// GetHistoryEvent returns one intake event with its per-file outcomes.
func (h *Handlers) GetHistoryEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ev, err := h.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, "event not found", http.StatusNotFound)
	case err != nil:
		logging.Error("failed to load intake event %s: %v", id, err)
		writeJSONError(w, "Failed to load event", http.StatusInternalServerError)
	default:
		writeJSONStatus(w, http.StatusOK, ev)
	}
}
