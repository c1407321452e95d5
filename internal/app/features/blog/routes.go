package blog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the public blog endpoints.
//
// When mounted at /api/blog:
//   - GET /api/blog        - Published posts, paginated, optional ?tag=
//   - GET /api/blog/{slug} - Published post by slug
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.listPublished)
	r.Get("/{slug}", h.getBySlug)

	return r
}

// AdminRoutes returns a router with the blog management endpoints. The
// caller mounts it behind admin authorization.
//
// When mounted at /api/admin/blog:
//   - POST   /api/admin/blog      - Create a post (any status)
//   - GET    /api/admin/blog      - List posts of every status
//   - GET    /api/admin/blog/{id} - Load one post
//   - PUT    /api/admin/blog/{id} - Update a post
//   - DELETE /api/admin/blog/{id} - Delete a post and its stored images
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.adminCreate)
	r.Get("/", h.adminList)
	r.Get("/{id}", h.adminGet)
	r.Put("/{id}", h.adminUpdate)
	r.Delete("/{id}", h.adminDelete)

	return r
}
