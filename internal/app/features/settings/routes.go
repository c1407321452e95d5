// internal/app/features/settings/routes.go
package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the public settings router.
//
//	GET / site name and logo URL
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.getPublic)
	return r
}

// AdminRoutes returns the settings admin router. The caller mounts it behind
// admin authorization.
//
//	GET    /      full settings document
//	PUT    /      update settings (logo managed separately)
//	POST   /logo  upload a new logo
//	DELETE /logo  remove the logo
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.adminGet)
	r.Put("/", h.adminUpdate)
	r.Post("/logo", h.uploadLogo)
	r.Delete("/logo", h.removeLogo)
	return r
}
