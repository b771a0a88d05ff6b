// internal/app/features/students/handler.go
package students

import (
	"net/http"
	"strconv"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the student directory and its xlsx export.
type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accountstore.New(db), Log: logger}
}

// filter reads department, semester and search from the query. A hod is
// held to their own department.
func filter(r *http.Request) (accountstore.Filter, error) {
	q := r.URL.Query()
	f := accountstore.Filter{
		Roles:      []string{models.RoleStudent},
		Department: normalize.Department(q.Get("department")),
		Search:     normalize.QueryParam(q.Get("search")),
	}
	if authz.HasAnyRole(r, models.RoleHOD) {
		own := authz.Department(r)
		if f.Department == "" {
			f.Department = own
		} else if f.Department != own {
			return f, apperr.E(apperr.Forbidden, "heads of department can only list their own department")
		}
	}
	if f.Department != "" {
		if err := inputval.Var("department", f.Department, "department"); err != nil {
			return f, err
		}
	}
	if raw := normalize.QueryParam(q.Get("semester")); raw != "" {
		sem, err := strconv.Atoi(raw)
		if err != nil || sem < 1 || sem > 8 {
			return f, apperr.E(apperr.BadRequest, "semester must be between 1 and 8")
		}
		f.Semester = sem
	}
	return f, nil
}

// ServeList handles GET /students.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list students")
	defer cancel()

	list, err := h.Accounts.List(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"students": list})
}
