// internal/app/features/subjects/handler.go
package subjects

import (
	"errors"
	"net/http"
	"strconv"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	subjectstore "github.com/dalemusser/studentportal/internal/app/store/subjects"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the subject catalogue.
type Handler struct {
	Subjects *subjectstore.Store
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Subjects: subjectstore.New(db),
		Accounts: accountstore.New(db),
		Log:      logger,
	}
}

// ServeList handles GET /subjects. Students default to their own department
// and semester, faculty to the subjects they teach. department and semester
// in the query take precedence.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)
	q := r.URL.Query()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list subjects")
	defer cancel()

	var f subjectstore.Filter
	switch role {
	case models.RoleStudent:
		me, err := h.Accounts.GetByID(ctx, uid)
		if errors.Is(err, accountstore.ErrNotFound) {
			jsonapi.Fail(w, r, apperr.NotFound, "user not found")
			return
		}
		if err != nil {
			jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
			return
		}
		f.Department = me.Department
		f.Semester = me.Semester
	case models.RoleFaculty:
		f.Faculty = uid
	}

	if dept := normalize.Department(q.Get("department")); dept != "" {
		if err := inputval.Var("department", dept, "department"); err != nil {
			jsonapi.WriteError(w, r, h.Log, err)
			return
		}
		f.Department = dept
	}
	if raw := normalize.QueryParam(q.Get("semester")); raw != "" {
		sem, err := strconv.Atoi(raw)
		if err != nil || sem < 1 || sem > 8 {
			jsonapi.Fail(w, r, apperr.BadRequest, "semester must be between 1 and 8")
			return
		}
		f.Semester = sem
	}

	list, err := h.Subjects.List(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	if err := h.populate(ctx, list); err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"subjects": list})
}

type createRequest struct {
	Code        string `json:"code" validate:"notblank,max=20"`
	Name        string `json:"name" validate:"notblank,max=200"`
	Department  string `json:"department" validate:"required,department"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	Credits     int    `json:"credits" validate:"required,min=1,max=6"`
	Description string `json:"description" validate:"max=4000"`
	Syllabus    string `json:"syllabus" validate:"max=20000"`
	Faculty     string `json:"faculty" validate:"omitempty,objectid"`
}

// HandleCreate handles POST /subjects. A faculty caller is recorded as the
// subject's faculty; an admin may name any faculty account or none.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	req.Department = normalize.Department(req.Department)
	req.Faculty = normalize.QueryParam(req.Faculty)
	htmlsanitize.Fields(&req.Code, &req.Name, &req.Description, &req.Syllabus)
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	role, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create subject")
	defer cancel()

	sub := models.Subject{
		Code:        req.Code,
		Name:        req.Name,
		Department:  req.Department,
		Semester:    req.Semester,
		Credits:     req.Credits,
		Description: req.Description,
		Syllabus:    req.Syllabus,
	}
	switch {
	case role == models.RoleFaculty:
		sub.Faculty = &uid
	case req.Faculty != "":
		fid, _ := primitive.ObjectIDFromHex(req.Faculty)
		fac, err := h.Accounts.GetByID(ctx, fid)
		if err != nil && !errors.Is(err, accountstore.ErrNotFound) {
			jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
			return
		}
		if fac == nil || fac.Role != models.RoleFaculty {
			jsonapi.Fail(w, r, apperr.BadRequest, "faculty must be a faculty account")
			return
		}
		sub.Faculty = &fac.ID
	}

	created, err := h.Subjects.Create(ctx, sub)
	if errors.Is(err, subjectstore.ErrDuplicateCode) {
		jsonapi.Fail(w, r, apperr.Conflict, "subject code already exists")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	list := []models.Subject{created}
	if err := h.populate(ctx, list); err != nil {
		h.Log.Warn("subject faculty lookup failed", zap.Error(err))
	}
	h.Log.Info("subject created",
		zap.String("subject_id", created.ID.Hex()),
		zap.String("code", created.Code),
		zap.String("by", uid.Hex()))
	jsonapi.WriteOK(w, http.StatusCreated, map[string]any{"subject": list[0]})
}
