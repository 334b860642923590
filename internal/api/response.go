package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/metrics"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ledgerError writes the response for an error returned by the ledger.
// Business rejections keep their fields in "details"; anything else is a 500.
func ledgerError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stock    *ledger.InsufficientStockError
		over     *ledger.OverReturnError
		blocked  *ledger.FinalizeBlockedError
		conflict *ledger.QuantityConflictError
	)
	body := errorBody{Error: err.Error(), Code: metrics.Reason(err)}

	var status int
	switch {
	case errors.As(err, &stock):
		status, body.Details = http.StatusConflict, stock
	case errors.As(err, &over):
		status, body.Details = http.StatusConflict, over
	case errors.As(err, &blocked):
		status, body.Details = http.StatusConflict, blocked
	case errors.As(err, &conflict):
		status, body.Details = http.StatusConflict, conflict
	case errors.Is(err, ledger.ErrHasOutstandingCheckouts), errors.Is(err, ledger.ErrEventFinalized):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrPrivilegeRequired):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidQuantity):
		status = http.StatusBadRequest
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, status, body)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {name} path value as a positive ID.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional ID query parameter. Missing means 0.
func queryID(r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id > 0
}
