// internal/app/features/assignments/handler.go
package assignments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	assignmentstore "github.com/dalemusser/studentportal/internal/app/store/assignments"
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

// Handler serves coursework assignments.
type Handler struct {
	Assignments *assignmentstore.Store
	Subjects    *subjectstore.Store
	Accounts    *accountstore.Store
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Assignments: assignmentstore.New(db),
		Subjects:    subjectstore.New(db),
		Accounts:    accountstore.New(db),
		Log:         logger,
	}
}

// ServeList handles GET /assignments. Faculty see what they set, students
// see assignments for the subjects of their department and semester, and
// admins and heads of department see everything. ?subject narrows further.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	var f assignmentstore.Filter
	if raw := normalize.QueryParam(r.URL.Query().Get("subject")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonapi.Fail(w, r, apperr.BadRequest, "subject must be a valid id")
			return
		}
		f.Subject = id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list assignments")
	defer cancel()

	switch role {
	case models.RoleFaculty:
		f.Faculty = uid
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
		ids, err := h.Subjects.IDs(ctx, subjectstore.Filter{Department: me.Department, Semester: me.Semester})
		if err != nil {
			jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
			return
		}
		f.SubjectIn = ids
	}

	list, err := h.Assignments.List(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	if err := h.populate(ctx, list); err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"assignments": list})
}

type createRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"notblank,max=4000"`
	Subject     string `json:"subject" validate:"required,objectid"`
	DueDate     string `json:"dueDate" validate:"required"`
	MaxMarks    int    `json:"maxMarks" validate:"required,min=1,max=1000"`
}

// parseDue accepts an RFC 3339 timestamp or a bare date, which is taken as
// the end of that day in UTC.
func parseDue(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Add(24*time.Hour - time.Second).UTC(), true
	}
	return time.Time{}, false
}

// HandleCreate handles POST /assignments. Faculty only; the subject must
// exist.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	htmlsanitize.Fields(&req.Title, &req.Description)
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	due, ok := parseDue(req.DueDate)
	if !ok {
		jsonapi.Fail(w, r, apperr.BadRequest, "dueDate must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
		return
	}
	subjectID, _ := primitive.ObjectIDFromHex(req.Subject)
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create assignment")
	defer cancel()

	sub, err := h.Subjects.GetByID(ctx, subjectID)
	if errors.Is(err, subjectstore.ErrNotFound) || (err == nil && !sub.IsActive) {
		jsonapi.Fail(w, r, apperr.NotFound, "subject not found")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	a, err := h.Assignments.Create(ctx, models.Assignment{
		Title:       req.Title,
		Description: req.Description,
		Subject:     sub.ID,
		Faculty:     uid,
		DueDate:     due,
		MaxMarks:    req.MaxMarks,
	})
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	list := []models.Assignment{a}
	if err := h.populate(ctx, list); err != nil {
		h.Log.Warn("assignment lookup failed", zap.Error(err))
	}
	h.Log.Info("assignment created",
		zap.String("assignment_id", a.ID.Hex()),
		zap.String("subject", sub.Code),
		zap.String("by", uid.Hex()))
	jsonapi.WriteOK(w, http.StatusCreated, map[string]any{"assignment": list[0]})
}

// populate fills subject and faculty details. Missing references are left
// bare.
func (h *Handler) populate(ctx context.Context, list []models.Assignment) error {
	if len(list) == 0 {
		return nil
	}
	var subjectIDs, facultyIDs []primitive.ObjectID
	for _, a := range list {
		subjectIDs = append(subjectIDs, a.Subject)
		facultyIDs = append(facultyIDs, a.Faculty)
	}
	subs, err := h.Subjects.FindByIDs(ctx, subjectIDs)
	if err != nil {
		return err
	}
	accts, err := h.Accounts.FindByIDs(ctx, facultyIDs)
	if err != nil {
		return err
	}
	subByID := make(map[primitive.ObjectID]models.Subject, len(subs))
	for _, s := range subs {
		subByID[s.ID] = s
	}
	acctByID := make(map[primitive.ObjectID]models.Account, len(accts))
	for _, a := range accts {
		acctByID[a.ID] = a
	}
	for i := range list {
		if s, ok := subByID[list[i].Subject]; ok {
			list[i].SubjectInfo = &models.SubjectRef{ID: s.ID, Code: s.Code, Name: s.Name}
		}
		if a, ok := acctByID[list[i].Faculty]; ok {
			list[i].FacultyInfo = &models.PersonRef{ID: a.ID, Name: a.Name, Email: a.Email}
		}
	}
	return nil
}
