package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// MembersHandler handles crew member endpoints.
type MembersHandler struct {
	*Deps
}

type createMemberRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// List handles GET /api/members.
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := store.ListMembers(r.Context(), h.DB)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	jsonResponse(w, http.StatusOK, members)
}

// Create handles POST /api/members.
func (h *MembersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Role == "" {
		req.Role = model.MemberAssembler
	}
	if !model.ValidMemberRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := store.GetMemberByName(r.Context(), h.DB, req.Name)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "member already exists")
		return
	}

	m, err := store.CreateMember(r.Context(), h.DB, req.Name, req.Role)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityMember, live.ActionCreated, m.ID, nil)
	jsonResponse(w, http.StatusCreated, m)
}

// Delete handles DELETE /api/members/{id}. Members are soft-deleted and drop
// out of every roster.
func (h *MembersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	m, err := store.GetMember(r.Context(), h.DB, id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if m == nil || m.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "member not found")
		return
	}

	if err := store.DeleteMember(r.Context(), h.DB, id); err != nil {
		ledgerError(w, r, err)
		return
	}

	h.broadcast(live.EntityMember, live.ActionDeleted, id, nil)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "member deleted"})
}
