// internal/app/features/counselors/handler.go
package counselors

import (
	"errors"
	"net/http"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler assigns faculty counsellors to students.
type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accountstore.New(db), Log: logger}
}

type assignRequest struct {
	StudentID   string `json:"studentId" validate:"required,objectid"`
	CounselorID string `json:"counselorId" validate:"required,objectid"`
}

type personJSON struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

type studentJSON struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Counselor personJSON         `json:"counselor"`
}

// HandleAssign handles POST /admin/assign-counselor. The counsellor must be
// a faculty or hod account. A hod may only assign students of their own
// department.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	studentID, _ := primitive.ObjectIDFromHex(req.StudentID)
	counselorID, _ := primitive.ObjectIDFromHex(req.CounselorID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assign counselor")
	defer cancel()

	student, err := h.Accounts.GetByID(ctx, studentID)
	if errors.Is(err, accountstore.ErrNotFound) || (err == nil && student.Role != models.RoleStudent) {
		jsonapi.Fail(w, r, apperr.NotFound, "student not found")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	if authz.HasAnyRole(r, models.RoleHOD) && student.Department != authz.Department(r) {
		jsonapi.Fail(w, r, apperr.Forbidden, "heads of department can only assign their own students")
		return
	}

	counselor, err := h.Accounts.GetByID(ctx, counselorID)
	if errors.Is(err, accountstore.ErrNotFound) ||
		(err == nil && counselor.Role != models.RoleFaculty && counselor.Role != models.RoleHOD) {
		jsonapi.Fail(w, r, apperr.NotFound, "counselor not found")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	updated, err := h.Accounts.SetCounselor(ctx, student.ID, counselor.ID)
	if errors.Is(err, accountstore.ErrNotFound) {
		jsonapi.Fail(w, r, apperr.NotFound, "student not found")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.Log.Info("counselor assigned",
		zap.String("student_id", updated.ID.Hex()),
		zap.String("counselor_id", counselor.ID.Hex()),
		zap.String("by", uid.Hex()))
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"student": studentJSON{
		ID:        updated.ID,
		Name:      updated.Name,
		Counselor: personJSON{ID: counselor.ID, Name: counselor.Name},
	}})
}
