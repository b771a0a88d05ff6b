// internal/app/features/registrations/routes.go
package registrations

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /admin/registrations. Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Patch("/", h.HandlePatch)
	return r
}
