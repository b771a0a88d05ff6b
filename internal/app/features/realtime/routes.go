// internal/app/features/realtime/routes.go
package realtime

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /realtime.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/realtime", h.ServeWS)
}
