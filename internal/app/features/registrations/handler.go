// internal/app/features/registrations/handler.go
package registrations

import (
	"errors"
	"net/http"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin approval queue.
type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accountstore.New(db), Log: logger}
}

// ServeList handles GET /admin/registrations: every non-admin account,
// newest first. ?status=pending narrows to one approval state.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := accountstore.Filter{ExcludeRoles: []string{models.RoleAdmin}}
	switch status := normalize.QueryParam(r.URL.Query().Get("status")); status {
	case "":
	case models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
		f.ApprovalStatus = status
	default:
		jsonapi.Fail(w, r, apperr.BadRequest, "status must be pending, approved or rejected")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list registrations")
	defer cancel()

	users, err := h.Accounts.ListRecent(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"users": users})
}

type patchRequest struct {
	UserID  string `json:"userId" validate:"required,objectid"`
	Approve *bool  `json:"approve" validate:"required"`
	Role    string `json:"role" validate:"omitempty,oneof=faculty hod"`
}

// HandlePatch handles PATCH /admin/registrations.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	req.Role = normalize.Role(req.Role)
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if !*req.Approve && req.Role != "" {
		jsonapi.Fail(w, r, apperr.BadRequest, "role can only be set when approving")
		return
	}
	id, _ := primitive.ObjectIDFromHex(req.UserID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set approval")
	defer cancel()

	a, err := h.Accounts.SetApproval(ctx, id, *req.Approve, req.Role)
	if errors.Is(err, accountstore.ErrNotFound) {
		jsonapi.Fail(w, r, apperr.NotFound, "user not found")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	h.Log.Info("registration reviewed",
		zap.String("user_id", a.ID.Hex()),
		zap.String("status", a.ApprovalStatus),
		zap.String("role", a.Role))
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"user": a})
}
