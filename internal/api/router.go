// Package api is the JSON HTTP API over the ledger and record store.
package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/montaza/internal/blob"
	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/metrics"
	"github.com/erazemk/montaza/internal/model"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	DB        *sql.DB
	Ledger    *ledger.Service
	Blobs     *blob.Store
	Hub       *live.Hub
	Metrics   *metrics.Metrics
	JWTSecret string

	// AllowedOrigins are extra origin patterns accepted by the change feed.
	AllowedOrigins []string
}

func (d *Deps) broadcast(entity, action string, id int64, extra map[string]any) {
	d.Hub.Broadcast(live.NewMessage(entity, action, id, extra))
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d *Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{d}
	itemsHandler := &ItemsHandler{d}
	membersHandler := &MembersHandler{d}
	eventsHandler := &EventsHandler{d}
	checkoutsHandler := &CheckoutsHandler{d}
	remindersHandler := &RemindersHandler{d}
	agendaHandler := &AgendaHandler{d}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMW(h))
	}

	mux.HandleFunc("GET /api/health", agendaHandler.Health)

	// Auth.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authMW(requireAdmin(http.HandlerFunc(authHandler.Logout))))
	mux.Handle("PUT /api/auth/passphrase", authMW(requireAdmin(http.HandlerFunc(authHandler.ChangePassphrase))))

	// Items.
	handle("GET /api/items", itemsHandler.List)
	handle("POST /api/items", itemsHandler.Create)
	handle("GET /api/items/{id}", itemsHandler.Get)
	handle("PUT /api/items/{id}", itemsHandler.Update)
	handle("DELETE /api/items/{id}", itemsHandler.Delete)
	handle("GET /api/items/{id}/stock", itemsHandler.Stock)
	handle("PUT /api/items/{id}/image", itemsHandler.UploadImage)
	handle("GET /api/items/{id}/image", itemsHandler.GetImage)

	// Members.
	handle("GET /api/members", membersHandler.List)
	handle("POST /api/members", membersHandler.Create)
	handle("DELETE /api/members/{id}", membersHandler.Delete)

	// Events. Deleting a finalized event needs an admin token.
	handle("GET /api/events", eventsHandler.List)
	handle("POST /api/events", eventsHandler.Create)
	handle("GET /api/events/{id}", eventsHandler.Get)
	handle("DELETE /api/events/{id}", eventsHandler.Delete)
	handle("PUT /api/events/{id}/status", eventsHandler.SetStatus)
	handle("PUT /api/events/{id}/roster", eventsHandler.UpdateRoster)
	handle("GET /api/events/{id}/finalize-check", eventsHandler.FinalizeCheck)
	handle("GET /api/events/{id}/photos", eventsHandler.ListPhotos)
	handle("POST /api/events/{id}/photos", eventsHandler.UploadPhoto)
	handle("GET /api/photos/{ref}", eventsHandler.GetPhoto)

	// Checkouts.
	handle("GET /api/checkouts", checkoutsHandler.List)
	handle("POST /api/checkouts", checkoutsHandler.Create)
	handle("POST /api/checkouts/{id}/return", checkoutsHandler.Return)

	// Reminders.
	handle("GET /api/reminders", remindersHandler.List)
	handle("POST /api/reminders", remindersHandler.Create)
	handle("DELETE /api/reminders/{id}", remindersHandler.Delete)

	handle("GET /api/agenda", agendaHandler.Get)

	mux.Handle("GET /api/live", live.Handler(d.Hub, d.AllowedOrigins))
	mux.Handle("GET /metrics", d.Metrics.Handler())

	return mux
}
