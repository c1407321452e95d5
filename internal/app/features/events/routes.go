// internal/app/features/events/routes.go
package events

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the public event router:
//
//	GET    /               upcoming published events
//	GET    /{slug}         published event detail
//	POST   /{id}/register  register the signed-in user
//	DELETE /{id}/register  cancel the registration
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listUpcoming)
	r.Get("/{slug}", h.getBySlug)
	r.Group(func(r chi.Router) {
		r.Use(h.sessionMgr.RequireSignedIn)
		r.Post("/{id}/register", h.register)
		r.Delete("/{id}/register", h.unregister)
	})
	return r
}

// AdminRoutes returns the event management router. The caller mounts it
// behind admin authorization.
//
//	POST   /       create an event
//	GET    /       list events of every status
//	GET    /{id}   fetch an event
//	PUT    /{id}   update an event
//	DELETE /{id}   delete an event and its registrations
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.adminCreate)
	r.Get("/", h.adminList)
	r.Get("/{id}", h.adminGet)
	r.Put("/{id}", h.adminUpdate)
	r.Delete("/{id}", h.adminDelete)
	return r
}
