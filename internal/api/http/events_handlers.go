package http

import (
	"net/http"
	"strconv"

	"github.com/campusgrid/examgate/internal/audit"
)

// GET /events?limit=50 — recent lifecycle events, admin only (gated by the
// router).
func ListEventsHandler(log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			if v > 500 {
				v = 500
			}
			limit = v
		}
		events, err := log.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
