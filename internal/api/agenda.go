package api

import (
	"net/http"
	"time"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

// AgendaHandler serves the daily overview and the health check.
type AgendaHandler struct {
	*Deps
}

// Get handles GET /api/agenda. The date defaults to today.
func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(model.DateLayout)
	}
	if !model.ValidDate(date) {
		jsonError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	a, err := h.Ledger.Agenda(r.Context(), date)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Health handles GET /api/health.
func (h *AgendaHandler) Health(w http.ResponseWriter, r *http.Request) {
	version, err := db.Version(h.DB)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"schema_version": version,
	})
}
