package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/montaza/internal/blob"
	"github.com/erazemk/montaza/internal/imaging"
	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// EventsHandler handles event, roster and album endpoints.
type EventsHandler struct {
	*Deps
}

type createEventRequest struct {
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	Date      string  `json:"date"`
	MemberIDs []int64 `json:"member_ids"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type rosterRequest struct {
	MemberIDs []int64 `json:"member_ids"`
}

type finalizeCheckResponse struct {
	Ready         bool `json:"ready"`
	PendingItems  int  `json:"pending_items"`
	MissingPhotos bool `json:"missing_photos"`
}

// List handles GET /api/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	var status model.EventStatus
	if s := r.URL.Query().Get("status"); s != "" {
		var err error
		if status, err = model.ParseEventStatus(s); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	events, err := store.ListEvents(r.Context(), h.DB, status)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// Create handles POST /api/events. An initial roster may be given.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" || req.Location == "" {
		jsonError(w, http.StatusBadRequest, "name and location required")
		return
	}
	if !model.ValidDate(req.Date) {
		jsonError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	e, err := store.CreateEvent(r.Context(), h.DB, req.Name, req.Location, req.Date)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	if len(req.MemberIDs) > 0 {
		if _, err := h.Ledger.UpdateRoster(r.Context(), e.ID, req.MemberIDs); err != nil {
			// Roll the event back so a bad roster does not leave a stray event.
			if _, derr := h.Ledger.DeleteEvent(r.Context(), e.ID, false); derr != nil {
				slog.Error("removing event after roster failure", "event", e.ID, "error", derr)
			}
			ledgerError(w, r, err)
			return
		}
	}

	full, err := h.Ledger.Event(r.Context(), e.ID)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityEvent, live.ActionCreated, e.ID, nil)
	jsonResponse(w, http.StatusCreated, full)
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	e, err := h.Ledger.Event(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/events/{id}. Finalized events need an admin token.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	privileged := IsAdmin(r.Context())
	refs, err := h.Ledger.DeleteEvent(r.Context(), id, privileged)
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}
	for _, ref := range refs {
		h.dropBlob(ref)
	}

	slog.Info("event deleted", "event", id, "privileged", privileged, "photos", len(refs))
	h.broadcast(live.EntityEvent, live.ActionDeleted, id, nil)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// SetStatus handles PUT /api/events/{id}/status.
func (h *EventsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := model.ParseEventStatus(req.Status)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.Ledger.SetEventStatus(r.Context(), id, status)
	if status == model.EventFinalized {
		h.Metrics.Finalize(err)
	}
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}

	slog.Info("event status changed", "event", id, "status", status)
	h.broadcast(live.EntityEvent, live.ActionStatusChanged, id, map[string]any{"status": status})
	jsonResponse(w, http.StatusOK, e)
}

// UpdateRoster handles PUT /api/events/{id}/roster.
func (h *EventsHandler) UpdateRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req rosterRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roster, err := h.Ledger.UpdateRoster(r.Context(), id, req.MemberIDs)
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityEvent, live.ActionRosterChanged, id, nil)
	jsonResponse(w, http.StatusOK, roster)
}

// FinalizeCheck handles GET /api/events/{id}/finalize-check.
func (h *EventsHandler) FinalizeCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	err := h.Ledger.CanFinalizeEvent(r.Context(), id)
	var blocked *ledger.FinalizeBlockedError
	switch {
	case err == nil:
		jsonResponse(w, http.StatusOK, finalizeCheckResponse{Ready: true})
	case errors.As(err, &blocked):
		jsonResponse(w, http.StatusOK, finalizeCheckResponse{
			PendingItems:  blocked.PendingItems,
			MissingPhotos: blocked.MissingPhotos,
		})
	default:
		ledgerError(w, r, err)
	}
}

// ListPhotos handles GET /api/events/{id}/photos.
func (h *EventsHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if _, err := h.Ledger.Event(r.Context(), id); err != nil {
		ledgerError(w, r, err)
		return
	}

	album, err := store.ListAlbum(r.Context(), h.DB, id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if album == nil {
		album = []model.AlbumEntry{}
	}
	jsonResponse(w, http.StatusOK, album)
}

// UploadPhoto handles POST /api/events/{id}/photos.
func (h *EventsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	img, ok := readUpload(w, r, "photo", imaging.AlbumPhotoSize)
	if !ok {
		return
	}

	ref, err := h.Blobs.Put(r.Context(), bytes.NewReader(img.Data))
	if err != nil {
		slog.Error("storing photo", "event", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	entry, err := h.Ledger.AttachPhoto(r.Context(), id, ref)
	if err != nil {
		h.dropBlob(ref)
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityPhoto, live.ActionCreated, entry.ID, map[string]any{"event_id": id})
	jsonResponse(w, http.StatusCreated, entry)
}

// GetPhoto handles GET /api/photos/{ref}.
func (h *EventsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	serveBlob(w, r, h.Blobs, r.PathValue("ref"))
}

func serveBlob(w http.ResponseWriter, r *http.Request, blobs *blob.Store, ref string) {
	f, err := blobs.Open(ref)
	switch {
	case errors.Is(err, blob.ErrInvalidRef):
		jsonError(w, http.StatusBadRequest, "invalid photo reference")
		return
	case errors.Is(err, blob.ErrNotFound):
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	case err != nil:
		slog.Error("opening blob", "ref", ref, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	http.ServeContent(w, r, ref, info.ModTime(), f)
}
