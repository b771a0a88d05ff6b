// internal/app/features/timetable/routes.go
package timetable

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /timetable and the admin-only
// POST /admin/timetable-import.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/timetable", h.ServeList)
	r.With(sm.RequireRole(models.RoleAdmin)).Post("/admin/timetable-import", h.HandleImport)
}
