// internal/app/features/faculty/handler.go
package faculty

import (
	"net/http"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accountstore.New(db), Log: logger}
}

// ServeList handles GET /faculty: faculty and hod accounts, optionally
// in one department.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := accountstore.Filter{
		Roles:      []string{models.RoleFaculty, models.RoleHOD},
		Department: normalize.Department(r.URL.Query().Get("department")),
		Search:     normalize.QueryParam(r.URL.Query().Get("search")),
	}
	if f.Department != "" {
		if err := inputval.Var("department", f.Department, "department"); err != nil {
			jsonapi.WriteError(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list faculty")
	defer cancel()

	list, err := h.Accounts.List(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"faculty": list})
}
