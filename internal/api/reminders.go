package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// RemindersHandler handles dated notes.
type RemindersHandler struct {
	*Deps
}

type createReminderRequest struct {
	Date    string `json:"date"`
	Message string `json:"message"`
}

// List handles GET /api/reminders.
func (h *RemindersHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" && !model.ValidDate(date) {
		jsonError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	reminders, err := store.ListReminders(r.Context(), h.DB, date)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	jsonResponse(w, http.StatusOK, reminders)
}

// Create handles POST /api/reminders.
func (h *RemindersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonError(w, http.StatusBadRequest, "message required")
		return
	}
	if !model.ValidDate(req.Date) {
		jsonError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rem, err := store.CreateReminder(r.Context(), h.DB, req.Date, req.Message)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityReminder, live.ActionCreated, rem.ID, nil)
	jsonResponse(w, http.StatusCreated, rem)
}

// Delete handles DELETE /api/reminders/{id}.
func (h *RemindersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}

	rem, err := store.GetReminder(r.Context(), h.DB, id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if rem == nil {
		jsonError(w, http.StatusNotFound, "reminder not found")
		return
	}

	if err := store.DeleteReminder(r.Context(), h.DB, id); err != nil {
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityReminder, live.ActionDeleted, id, nil)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reminder deleted"})
}
