// internal/app/features/memberships/routes.go
package memberships

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the public tier catalog router:
//
//	GET / active tiers in display order
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listTiers)
	return r
}

// MeRoutes returns the self-service membership router, mounted under
// /api/me/membership:
//
//	POST   / subscribe to a tier, or renew the current one
//	DELETE / cancel, keeping access until the end date
func MeRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(h.sessionMgr.RequireSignedIn)
	r.Post("/", h.subscribe)
	r.Delete("/", h.cancel)
	return r
}

// AdminRoutes returns the tier management router. The caller mounts it
// behind admin authorization.
//
//	POST   /       create a tier
//	GET    /       list every tier
//	GET    /{id}   fetch a tier
//	PUT    /{id}   update a tier
//	DELETE /{id}   delete a tier without subscribers
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.adminCreate)
	r.Get("/", h.adminList)
	r.Get("/{id}", h.adminGet)
	r.Put("/{id}", h.adminUpdate)
	r.Delete("/{id}", h.adminDelete)
	return r
}
