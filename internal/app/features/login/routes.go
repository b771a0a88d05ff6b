// internal/app/features/login/routes.go
package login

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /auth/login, optionally behind limit.
func MountRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	if limit == nil {
		r.Post("/auth/login", h.HandleLogin)
		return
	}
	r.With(limit).Post("/auth/login", h.HandleLogin)
}
