package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/montaza/internal/imaging"
	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	*Deps
}

type itemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity *int   `json:"quantity"`
}

// validate normalizes the request and returns a message for invalid input.
func (req *itemRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name required"
	}
	if req.Category == "" {
		req.Category = model.CategoryOther
	}
	if !model.ValidCategory(req.Category) {
		return "invalid category"
	}
	if req.Quantity == nil {
		return "quantity required"
	}
	if *req.Quantity < 0 {
		return "quantity must not be negative"
	}
	return ""
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !model.ValidCategory(category) {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, category)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Name, req.Category, *req.Quantity)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityItem, live.ActionCreated, item.ID, nil)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Ledger.GetItem(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.Ledger.UpdateItem(r.Context(), id, req.Name, req.Category, *req.Quantity)
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityItem, live.ActionUpdated, item.ID, nil)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. With ?cascade=true the item's
// checkouts are removed along with it.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	cascade := r.URL.Query().Get("cascade") == "true"

	ref, err := h.Ledger.DeleteItem(r.Context(), id, cascade)
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}
	h.dropBlob(ref)

	slog.Info("item deleted", "item", id, "cascade", cascade)
	h.broadcast(live.EntityItem, live.ActionDeleted, id, nil)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Stock handles GET /api/items/{id}/stock.
func (h *ItemsHandler) Stock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	st, err := h.Ledger.Stock(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, st)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if _, err := h.Ledger.GetItem(r.Context(), id); err != nil {
		ledgerError(w, r, err)
		return
	}

	img, ok := readUpload(w, r, "image", imaging.ItemImageSize)
	if !ok {
		return
	}

	ref, err := h.Blobs.Put(r.Context(), bytes.NewReader(img.Data))
	if err != nil {
		slog.Error("storing item image", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	// The item may have been deleted while the upload was processed.
	previous, err := h.Ledger.SetItemImage(r.Context(), id, ref)
	if err != nil {
		h.dropBlob(ref)
		ledgerError(w, r, err)
		return
	}
	h.dropBlob(previous)

	h.broadcast(live.EntityItem, live.ActionUpdated, id, map[string]any{"image_ref": ref})
	jsonResponse(w, http.StatusOK, map[string]string{"image_ref": ref})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Ledger.GetItem(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if item.ImageRef == "" {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	serveBlob(w, r, h.Blobs, item.ImageRef)
}

// readUpload reads and normalizes the multipart file in field. On failure it
// has already written the response.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxDim int) (*imaging.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)

	file, _, err := r.FormFile(field)
	if err != nil {
		jsonError(w, http.StatusBadRequest, field+" file required")
		return nil, false
	}
	defer file.Close()

	img, err := imaging.Normalize(file, maxDim)
	var unsupported *imaging.UnsupportedFormatError
	switch {
	case errors.As(err, &unsupported):
		jsonError(w, http.StatusUnsupportedMediaType, err.Error())
		return nil, false
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return nil, false
	case err != nil:
		jsonError(w, http.StatusBadRequest, "invalid image")
		return nil, false
	}
	return img, true
}

// dropBlob removes a blob that is no longer referenced. Failures only leave
// an orphaned file behind, so they are logged.
func (d *Deps) dropBlob(ref string) {
	if ref == "" {
		return
	}
	if err := d.Blobs.Delete(ref); err != nil {
		slog.Warn("removing blob", "ref", ref, "error", err)
	}
}
