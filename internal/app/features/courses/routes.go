package courses

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the public course endpoints.
//
// When mounted at /api/courses:
//   - GET  /api/courses             - Published courses, paginated
//   - GET  /api/courses/{slug}      - Published course with modules and lessons
//   - POST /api/courses/{id}/enroll - Enroll the signed-in user
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.listPublished)
	r.Get("/{slug}", h.getBySlug)

	r.Group(func(pr chi.Router) {
		pr.Use(h.sessionMgr.RequireSignedIn)
		pr.Post("/{id}/enroll", h.enroll)
	})

	return r
}

// AdminRoutes returns a router with the course management endpoints. The
// caller mounts it behind admin authorization.
//
// When mounted at /api/admin/courses:
//   - POST   /api/admin/courses                          - Create (409 on slug)
//   - GET    /api/admin/courses                          - List all statuses
//   - GET    /api/admin/courses/{id}                     - Load with lessons
//   - PUT    /api/admin/courses/{id}                     - Update
//   - DELETE /api/admin/courses/{id}                     - Delete with lessons
//   - POST   /api/admin/courses/{id}/modules             - Add a module
//   - PUT    /api/admin/courses/{id}/modules/{moduleID}  - Rename or reorder
//   - DELETE /api/admin/courses/{id}/modules/{moduleID}  - Remove a module
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.adminCreate)
	r.Get("/", h.adminList)
	r.Get("/{id}", h.adminGet)
	r.Put("/{id}", h.adminUpdate)
	r.Delete("/{id}", h.adminDelete)

	r.Post("/{id}/modules", h.adminAddModule)
	r.Put("/{id}/modules/{moduleID}", h.adminUpdateModule)
	r.Delete("/{id}/modules/{moduleID}", h.adminRemoveModule)

	return r
}
