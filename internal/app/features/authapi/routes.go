package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the authentication endpoints.
//
// When mounted at /api/auth:
//   - POST /api/auth/register        - Create an account
//   - POST /api/auth/login           - Credential login (may require a code)
//   - POST /api/auth/login/verify    - Verify an emailed login code
//   - POST /api/auth/logout          - Destroy the session
//   - POST /api/auth/forgot-password - Request a password reset code
//   - POST /api/auth/reset-password  - Reset the password with code or token
//   - POST /api/auth/token           - Exchange the session for a bearer token
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/login/verify", h.loginVerify)
	r.Post("/logout", h.logout)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(h.sessionMgr.RequireSignedIn)
		pr.Post("/token", h.token)
	})

	return r
}
