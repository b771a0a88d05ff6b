// internal/app/features/onboarding/handler.go
package onboarding

import (
	"errors"
	"net/http"
	"strings"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/app/system/validators"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accountstore.New(db),
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

type profileRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Department  string `json:"department"`

	RollNumber    string `json:"rollNumber"`
	AdmissionYear int    `json:"admissionYear"`
	Semester      int    `json:"semester"`
	Section       string `json:"section"`

	Specialization string `json:"specialization"`
	Education      string `json:"education"`
	Experience     string `json:"experience"`

	Interests []string `json:"interests"`
	Domain    string   `json:"domain"`
}

// missing lists the required fields that are empty for role, in a stable order.
func (p profileRequest) missing(role string) []string {
	var out []string
	need := func(name string, empty bool) {
		if empty {
			out = append(out, name)
		}
	}
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	need("name", blank(p.Name))
	need("phoneNumber", blank(p.PhoneNumber))
	need("address", blank(p.Address))
	need("department", blank(p.Department))
	switch role {
	case models.RoleStudent:
		need("rollNumber", blank(p.RollNumber))
		need("admissionYear", p.AdmissionYear == 0)
		need("semester", p.Semester == 0)
		need("section", blank(p.Section))
	case models.RoleFaculty, models.RoleHOD:
		need("specialization", blank(p.Specialization))
		need("education", blank(p.Education))
	}
	return out
}

func (p profileRequest) validate(role string) error {
	if m := p.missing(role); len(m) > 0 {
		return apperr.E(apperr.BadRequest, "missing required fields: "+strings.Join(m, ", "))
	}
	if err := inputval.Var("department", p.Department, "department"); err != nil {
		return err
	}
	if role != models.RoleStudent {
		return nil
	}
	if err := inputval.Var("section", p.Section, "section"); err != nil {
		return err
	}
	if err := inputval.Var("semester", p.Semester, "min=1,max=8"); err != nil {
		return err
	}
	return inputval.Var("admissionYear", p.AdmissionYear, "min=2000,max=2100")
}

func (p profileRequest) profile(role string) accountstore.Profile {
	htmlsanitize.Fields(&p.Name, &p.PhoneNumber, &p.Address, &p.RollNumber,
		&p.Specialization, &p.Education, &p.Experience, &p.Domain)
	out := accountstore.Profile{
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		Department:  normalize.Department(p.Department),
		Interests:   normalize.Strings(p.Interests),
		Domain:      p.Domain,
	}
	switch role {
	case models.RoleStudent:
		out.RollNumber = strings.ToUpper(p.RollNumber)
		out.AdmissionYear = p.AdmissionYear
		out.Semester = p.Semester
		out.Section = normalize.Section(p.Section)
	case models.RoleFaculty, models.RoleHOD:
		out.Specialization = p.Specialization
		out.Education = p.Education
		out.Experience = p.Experience
	}
	return out
}

// HandleOnboarding handles POST /user/onboarding.
//
// On success the session claims are re-issued with isOnboarded set and the
// signed onboarded cookie is written, so the gate lets the user through
// even if a stale session cookie is replayed.
func (h *Handler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
		return
	}

	var req profileRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := req.validate(role); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "onboarding")
	defer cancel()

	a, err := h.Accounts.CompleteOnboarding(ctx, uid, req.profile(role))
	if errors.Is(err, accountstore.ErrNotFound) {
		jsonapi.Fail(w, r, apperr.NotFound, "account not found")
		return
	}
	if validators.IsDocumentValidation(err) {
		jsonapi.WriteError(w, r, h.Log, apperr.Wrap(apperr.BadRequest, "profile failed validation", err))
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.ClaimsFor(a)); err != nil {
		h.Log.Warn("onboarding: refresh session", zap.String("user_id", a.ID.Hex()), zap.Error(err))
	}
	if err := h.SessionMgr.SetOnboardedCookie(w, a.ID.Hex()); err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	h.Log.Info("onboarding completed", zap.String("user_id", a.ID.Hex()), zap.String("role", a.Role))
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"user": a})
}
