// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /projects. Role checks happen in the service because
// they depend on the group being acted on.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Patch("/", h.HandlePatch)

	r.Get("/{groupId}/reports", h.ServeReports)
	r.Post("/{groupId}/reports", h.HandleSubmitReport)
	r.Patch("/{groupId}/reports", h.HandleReviewReport)

	return r
}
