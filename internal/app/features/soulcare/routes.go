// internal/app/features/soulcare/routes.go
package soulcare

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the public soul-care router, published entries only:
//
//	GET /           combined catalog (services, team, resources)
//	GET /services   services, optionally ?featured=true
//	GET /team       team members, optionally ?featured=true
//	GET /resources  resources, optionally ?featured=true
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.getCatalog)
	r.Get("/services", h.listServices)
	r.Get("/team", h.listTeam)
	r.Get("/resources", h.listResources)
	return r
}

// AdminRoutes returns the catalog management router with full CRUD under
// /services, /team, and /resources. The caller mounts it behind admin
// authorization.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/services", func(r chi.Router) {
		r.Post("/", h.adminCreateService)
		r.Get("/", h.adminListServices)
		r.Get("/{id}", h.adminGetService)
		r.Put("/{id}", h.adminUpdateService)
		r.Delete("/{id}", h.adminDeleteService)
	})
	r.Route("/team", func(r chi.Router) {
		r.Post("/", h.adminCreateTeamMember)
		r.Get("/", h.adminListTeamMembers)
		r.Get("/{id}", h.adminGetTeamMember)
		r.Put("/{id}", h.adminUpdateTeamMember)
		r.Delete("/{id}", h.adminDeleteTeamMember)
	})
	r.Route("/resources", func(r chi.Router) {
		r.Post("/", h.adminCreateResource)
		r.Get("/", h.adminListResources)
		r.Get("/{id}", h.adminGetResource)
		r.Put("/{id}", h.adminUpdateResource)
		r.Delete("/{id}", h.adminDeleteResource)
	})

	return r
}
