// internal/app/features/onboarding/routes.go
package onboarding

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /user/onboarding.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Post("/user/onboarding", h.HandleOnboarding)
}
