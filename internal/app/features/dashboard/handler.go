// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	metricsstore "github.com/dalemusser/studentportal/internal/app/store/metrics"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// stats is the dashboard payload. Only the fields for the caller's role
// are set.
type stats struct {
	Role         string               `json:"role"`
	MyGroups     *int64               `json:"myGroups,omitempty"`
	GuidedGroups *int64               `json:"guidedGroups,omitempty"`
	Department   string               `json:"department,omitempty"`
	Counts       *metricsstore.Counts `json:"counts,omitempty"`
}

// ServeDashboard handles GET /dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, uname, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dashboard")
	defer cancel()

	out := stats{Role: role}
	switch role {
	case models.RoleStudent:
		n := metricsstore.CountMemberGroups(ctx, h.DB, uid)
		out.MyGroups = &n
	case models.RoleFaculty:
		n := metricsstore.CountGuidedGroups(ctx, h.DB, uid)
		out.GuidedGroups = &n
	case models.RoleHOD:
		out.Department = authz.Department(r)
		counts := metricsstore.FetchDepartmentCounts(ctx, h.DB, out.Department)
		out.Counts = &counts
	case models.RoleAdmin:
		counts := metricsstore.FetchDashboardCounts(ctx, h.DB)
		out.Counts = &counts
	default:
		jsonapi.Fail(w, r, apperr.Forbidden, "unknown role")
		return
	}

	h.Log.Debug("dashboard served", zap.String("user", uname), zap.String("role", role))
	jsonapi.WriteOK(w, http.StatusOK, out)
}
