package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// CheckoutsHandler handles movements of items between base and events.
type CheckoutsHandler struct {
	*Deps
}

type createCheckoutRequest struct {
	ItemID      int64  `json:"item_id"`
	EventID     int64  `json:"event_id"`
	Quantity    int    `json:"quantity"`
	Destination string `json:"destination"`
}

type returnRequest struct {
	Quantity int `json:"quantity"`
}

type returnResponse struct {
	Full      bool `json:"full"`
	Remaining int  `json:"remaining"`
	Available int  `json:"available"`
}

// List handles GET /api/checkouts.
func (h *CheckoutsHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID, ok := queryID(r, "event_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event_id")
		return
	}
	itemID, ok := queryID(r, "item_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	checkouts, err := store.ListCheckouts(r.Context(), h.DB, itemID, eventID)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if checkouts == nil {
		checkouts = []model.Checkout{}
	}
	jsonResponse(w, http.StatusOK, checkouts)
}

// Create handles POST /api/checkouts.
func (h *CheckoutsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID <= 0 || req.EventID <= 0 {
		jsonError(w, http.StatusBadRequest, "item_id and event_id required")
		return
	}

	c, err := h.Ledger.RecordCheckout(r.Context(), req.ItemID, req.EventID, req.Quantity, strings.TrimSpace(req.Destination))
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}
	h.Metrics.Checkout(c.Quantity)

	slog.Info("checkout recorded", "item", c.ItemID, "event", c.EventID, "quantity", c.Quantity)
	h.broadcast(live.EntityCheckout, live.ActionCreated, c.ID, map[string]any{
		"item_id":  c.ItemID,
		"event_id": c.EventID,
	})
	jsonResponse(w, http.StatusCreated, c)
}

// Return handles POST /api/checkouts/{id}/return.
func (h *CheckoutsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid checkout id")
		return
	}

	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Looked up first so the response and notification can name the item.
	c, err := store.GetCheckout(r.Context(), h.DB, id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	res, err := h.Ledger.RecordReturn(r.Context(), id, req.Quantity)
	if err != nil {
		h.Metrics.Reject(err)
		ledgerError(w, r, err)
		return
	}
	h.Metrics.Return(req.Quantity, res)

	resp := returnResponse{Full: res.Full, Remaining: res.Remaining}
	extra := map[string]any{"full": res.Full, "remaining": res.Remaining}
	if c != nil {
		extra["item_id"], extra["event_id"] = c.ItemID, c.EventID
		if resp.Available, err = h.Ledger.Available(r.Context(), c.ItemID); err != nil {
			ledgerError(w, r, err)
			return
		}
	}

	slog.Info("return recorded", "checkout", id, "quantity", req.Quantity, "full", res.Full)
	h.broadcast(live.EntityCheckout, live.ActionReturned, id, extra)
	jsonResponse(w, http.StatusOK, resp)
}
