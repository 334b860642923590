package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/montaza/internal/auth"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// AuthHandler handles the admin session endpoints.
type AuthHandler struct {
	*Deps
}

type loginRequest struct {
	Passphrase string `json:"passphrase"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type changePassphraseRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

// Login handles POST /api/auth/login, exchanging the shared admin passphrase
// for an admin token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Passphrase == "" {
		jsonError(w, http.StatusBadRequest, "passphrase required")
		return
	}

	ok, status := h.checkPassphrase(r, req.Passphrase)
	if status != 0 {
		jsonError(w, status, http.StatusText(status))
		return
	}
	if !ok {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid passphrase")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, model.RoleAdmin)
	if err != nil {
		slog.Error("generating token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("admin logged in", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Role: model.RoleAdmin})
}

// Logout handles POST /api/auth/logout by revoking the caller's token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("revoking token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassphrase handles PUT /api/auth/passphrase.
func (h *AuthHandler) ChangePassphrase(w http.ResponseWriter, r *http.Request) {
	var req changePassphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Current == "" || req.New == "" {
		jsonError(w, http.StatusBadRequest, "current and new passphrase required")
		return
	}

	ok, status := h.checkPassphrase(r, req.Current)
	if status != 0 {
		jsonError(w, status, http.StatusText(status))
		return
	}
	if !ok {
		jsonError(w, http.StatusUnauthorized, "current passphrase is incorrect")
		return
	}

	hash, err := auth.HashPassphrase(req.New)
	if errors.Is(err, auth.ErrWeakPassphrase) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash passphrase")
		return
	}

	if err := store.SetSetting(r.Context(), h.DB, store.SettingAdminPassphrase, hash); err != nil {
		slog.Error("storing passphrase", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update passphrase")
		return
	}

	slog.Info("admin passphrase changed", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "passphrase updated"})
}

// checkPassphrase compares against the stored hash. A non-zero status means
// the check could not be made.
func (h *AuthHandler) checkPassphrase(r *http.Request, passphrase string) (bool, int) {
	hash, set, err := store.GetSetting(r.Context(), h.DB, store.SettingAdminPassphrase)
	if err != nil {
		slog.Error("loading passphrase", "error", err)
		return false, http.StatusInternalServerError
	}
	if !set {
		return false, http.StatusServiceUnavailable
	}

	ok, err := auth.CheckPassphrase(hash, passphrase)
	if err != nil {
		slog.Error("checking passphrase", "error", err)
		return false, http.StatusInternalServerError
	}
	return ok, 0
}
