// internal/app/features/register/routes.go
package register

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /auth/register. limit, when non-nil, wraps
// the handler (per-IP rate limiting).
func MountRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	if limit == nil {
		r.Post("/auth/register", h.HandleRegister)
		return
	}
	r.With(limit).Post("/auth/register", h.HandleRegister)
}
