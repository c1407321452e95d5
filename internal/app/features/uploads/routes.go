// internal/app/features/uploads/routes.go
package uploads

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminRoutes returns the upload router. The caller mounts it behind admin
// authorization.
//
//	POST   / store a multipart file under uploads/YYYY/MM/
//	DELETE / remove a stored upload by path
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.upload)
	r.Delete("/", h.remove)
	return r
}
