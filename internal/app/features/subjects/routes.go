// internal/app/features/subjects/routes.go
package subjects

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /subjects. Any signed-in user may list; admins and
// faculty may create.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.With(sm.RequireRole(models.RoleAdmin, models.RoleFaculty)).Post("/", h.HandleCreate)
	return r
}
