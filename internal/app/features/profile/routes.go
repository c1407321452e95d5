package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the current-user endpoints.
//
// When mounted at /api/me:
//   - GET  /api/me          - Current user with live membership fields
//   - PUT  /api/me          - Update name and email
//   - POST /api/me/password - Change password
//
// All routes require a signed-in user. Membership subscribe/cancel lives in
// the memberships feature and is mounted alongside these.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(h.sessionMgr.RequireSignedIn)

	r.Get("/", h.getMe)
	r.Put("/", h.updateMe)
	r.Post("/password", h.changePassword)

	return r
}
