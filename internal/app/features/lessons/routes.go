// internal/app/features/lessons/routes.go
package lessons

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the public lesson router:
//
//	GET  /{id}           lesson content, gated by course access type
//	POST /{id}/complete  mark the lesson complete for the signed-in user
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.sessionMgr.RequireSignedIn)
		r.Post("/{id}/complete", h.complete)
	})
	return r
}

// AdminRoutes returns the lesson management router. The caller mounts it
// behind admin authorization.
//
//	POST   /       create a lesson
//	GET    /       list lessons for a course (?course_id=)
//	GET    /{id}   fetch a lesson
//	PUT    /{id}   update a lesson
//	DELETE /{id}   delete a lesson and its completions
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.adminCreate)
	r.Get("/", h.adminList)
	r.Get("/{id}", h.adminGet)
	r.Put("/{id}", h.adminUpdate)
	r.Delete("/{id}", h.adminDelete)
	return r
}
