// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /user/me.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/user/me", h.ServeMe)
}
