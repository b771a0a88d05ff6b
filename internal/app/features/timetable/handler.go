// internal/app/features/timetable/handler.go
package timetable

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	timetablestore "github.com/dalemusser/studentportal/internal/app/store/timetable"
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

// maxImportEntries bounds one import request.
const maxImportEntries = 500

// Handler serves the weekly timetable and its admin import.
type Handler struct {
	Entries  *timetablestore.Store
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Entries:  timetablestore.New(db),
		Accounts: accountstore.New(db),
		Log:      logger,
	}
}

// ServeList handles GET /timetable. Without ?day the whole week is returned
// in week order. Students default to their own department; entries with no
// department are shown to everyone.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f timetablestore.Filter

	if day := strings.ToLower(normalize.QueryParam(q.Get("day"))); day != "" {
		if models.DayIndex(day) < 0 {
			jsonapi.Fail(w, r, apperr.BadRequest, "day must be a weekday name")
			return
		}
		f.Day = day
	}
	if authz.HasAnyRole(r, models.RoleStudent) {
		f.Department = authz.Department(r)
	}
	if dept := normalize.Department(q.Get("department")); dept != "" {
		if err := inputval.Var("department", dept, "department"); err != nil {
			jsonapi.WriteError(w, r, h.Log, err)
			return
		}
		f.Department = dept
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list timetable")
	defer cancel()

	list, err := h.Entries.List(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"timetable": list})
}

type importEntry struct {
	Day         string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string `json:"endTime" validate:"required,datetime=15:04"`
	SubjectCode string `json:"subjectCode" validate:"notblank,max=20"`
	SubjectName string `json:"subjectName" validate:"max=200"`
	FacultyID   string `json:"facultyId" validate:"omitempty,objectid"`
	Room        string `json:"room" validate:"max=50"`
	Department  string `json:"department" validate:"omitempty,department"`
}

type importRequest struct {
	Entries []importEntry `json:"entries" validate:"required,min=1,dive"`
}

// clock rewrites a parseable time of day as zero-padded HH:MM. Values that
// do not parse are returned unchanged for the validator to report.
func clock(s string) string {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return s
	}
	return t.Format("15:04")
}

// HandleImport handles POST /admin/timetable-import. The whole payload is
// checked before anything is written; each entry then replaces the slot
// with the same day, start time and subject code.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if len(req.Entries) > maxImportEntries {
		jsonapi.Fail(w, r, apperr.BadRequest, fmt.Sprintf("at most %d entries per import", maxImportEntries))
		return
	}
	for i := range req.Entries {
		e := &req.Entries[i]
		e.Day = strings.ToLower(strings.TrimSpace(e.Day))
		e.StartTime = clock(e.StartTime)
		e.EndTime = clock(e.EndTime)
		e.SubjectCode = strings.ToUpper(strings.TrimSpace(e.SubjectCode))
		e.Department = normalize.Department(e.Department)
		e.FacultyID = strings.TrimSpace(e.FacultyID)
		htmlsanitize.Fields(&e.SubjectCode, &e.SubjectName, &e.Room)
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	entries := make([]models.TimetableEntry, 0, len(req.Entries))
	var facultyIDs []primitive.ObjectID
	for i, e := range req.Entries {
		if e.EndTime <= e.StartTime {
			jsonapi.Fail(w, r, apperr.BadRequest, fmt.Sprintf("entries[%d]: endTime must be after startTime", i))
			return
		}
		entry := models.TimetableEntry{
			Day:         e.Day,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			SubjectCode: e.SubjectCode,
			SubjectName: e.SubjectName,
			Room:        e.Room,
			Department:  e.Department,
		}
		if e.FacultyID != "" {
			fid, _ := primitive.ObjectIDFromHex(e.FacultyID)
			entry.FacultyID = &fid
			facultyIDs = append(facultyIDs, fid)
		}
		entries = append(entries, entry)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "import timetable")
	defer cancel()

	if err := h.checkFaculty(ctx, facultyIDs); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	for i, e := range entries {
		if _, err := h.Entries.Upsert(ctx, e); err != nil {
			h.Log.Error("timetable import stopped",
				zap.Int("written", i),
				zap.Int("total", len(entries)),
				zap.Error(err))
			jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
			return
		}
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.Log.Info("timetable imported", zap.Int("entries", len(entries)), zap.String("by", uid.Hex()))
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"imported": len(entries)})
}

// checkFaculty requires every referenced id to be a faculty or hod account.
func (h *Handler) checkFaculty(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	accts, err := h.Accounts.FindByIDs(ctx, ids)
	if err != nil {
		return apperr.Internal(err)
	}
	staff := make(map[primitive.ObjectID]bool, len(accts))
	for _, a := range accts {
		if a.Role == models.RoleFaculty || a.Role == models.RoleHOD {
			staff[a.ID] = true
		}
	}
	for _, id := range ids {
		if !staff[id] {
			return apperr.E(apperr.BadRequest, "facultyId "+id.Hex()+" is not a faculty account")
		}
	}
	return nil
}
