// internal/app/features/students/routes.go
package students

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /students.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleHOD, models.RoleFaculty))
	r.Get("/", h.ServeList)
	r.Get("/export", h.ServeExport)
	return r
}
