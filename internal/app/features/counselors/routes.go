// internal/app/features/counselors/routes.go
package counselors

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /admin/assign-counselor for admins and heads
// of department.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireRole(models.RoleAdmin, models.RoleHOD)).Post("/admin/assign-counselor", h.HandleAssign)
}
