// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /assignments.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.With(sm.RequireRole(models.RoleFaculty)).Post("/", h.HandleCreate)
	return r
}
