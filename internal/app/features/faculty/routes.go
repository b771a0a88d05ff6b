// internal/app/features/faculty/routes.go
package faculty

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /faculty for admins and heads of department.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleHOD))
	r.Get("/", h.ServeList)
	return r
}
