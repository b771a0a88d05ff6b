// internal/app/features/register/handler.go
package register

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/authutil"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/app/system/validators"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Default email domains.
const (
	DefaultStudentDomain = "charusat.edu.in"
	DefaultStaffDomain   = "charusat.ac.in"
)

// Handler serves POST /auth/register.
type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger

	studentDomain string
	staffDomain   string
	legacyRoll    *regexp.Regexp
}

// NewHandler builds the handler. Empty domains fall back to the defaults.
func NewHandler(db *mongo.Database, studentDomain, staffDomain string, logger *zap.Logger) *Handler {
	studentDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(studentDomain), "@"))
	if studentDomain == "" {
		studentDomain = DefaultStudentDomain
	}
	staffDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(staffDomain), "@"))
	if staffDomain == "" {
		staffDomain = DefaultStaffDomain
	}
	return &Handler{
		Accounts:      accountstore.New(db),
		Log:           logger,
		studentDomain: studentDomain,
		staffDomain:   staffDomain,
		legacyRoll:    regexp.MustCompile(`(?i)^(\d{2})([A-Z]{2,3})(\d{3})@` + regexp.QuoteMeta(studentDomain) + `$`),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type registeredUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleRegister creates a student, faculty or hod account.
//
// Students register with the student domain and are active immediately.
// Staff register with the staff domain and wait for an admin to approve them.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	acct, err := h.newAccount(req)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	created, err := h.Accounts.Create(ctx, acct)
	if errors.Is(err, accountstore.ErrDuplicateEmail) {
		jsonapi.Fail(w, r, apperr.Conflict, "an account with this email already exists")
		return
	}
	if validators.IsDocumentValidation(err) {
		jsonapi.WriteError(w, r, h.Log, apperr.Wrap(apperr.BadRequest, "account failed validation", err))
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	metrics.Registrations.WithLabelValues(created.Role).Inc()
	h.Log.Info("account registered",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role),
		zap.String("approval", created.ApprovalStatus))

	jsonapi.WriteOK(w, http.StatusCreated, map[string]any{
		"user": registeredUser{ID: created.ID.Hex(), Email: created.Email, Role: created.Role},
	})
}

// newAccount validates the role and email domain and fills the initial
// account state. The password is hashed but not checked for strength.
func (h *Handler) newAccount(req registerRequest) (models.Account, error) {
	email := normalize.Email(req.Email)
	role := normalize.Role(req.Role)

	var domain string
	switch role {
	case models.RoleStudent:
		domain = h.studentDomain
	case models.RoleFaculty, models.RoleHOD:
		domain = h.staffDomain
	default:
		return models.Account{}, apperr.E(apperr.BadRequest, "role must be student, faculty or hod")
	}
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host != domain {
		return models.Account{}, apperr.E(apperr.BadRequest, fmt.Sprintf("%s accounts must use an @%s email", role, domain))
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return models.Account{}, apperr.Internal(err)
	}

	a := models.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsRegistered: true,
	}
	if role == models.RoleStudent {
		a.IsApproved = true
		a.IsActive = true
		a.ApprovalStatus = models.ApprovalApproved
		h.backfillFromRoll(&a)
	} else {
		a.ApprovalStatus = models.ApprovalPending
	}
	return a, nil
}

// backfillFromRoll reads admission year and department out of a legacy
// roll-number email such as 22cse045@<student domain>.
func (h *Handler) backfillFromRoll(a *models.Account) {
	m := h.legacyRoll.FindStringSubmatch(a.Email)
	if m == nil {
		return
	}
	if yy, err := strconv.Atoi(m[1]); err == nil {
		a.AdmissionYear = 2000 + yy
	}
	if dept := normalize.Department(m[2]); models.IsDepartment(dept) {
		a.Department = dept
	}
}
