// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"time"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/authutil"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/studentportal/internal/app/system/ratelimit"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

// NewHandler wires the login handler. limiter may be nil.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accountstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var errBadCredentials = apperr.E(apperr.Unauthorized, "invalid email or password")

// HandleLogin handles POST /auth/login.
//
// Unknown emails and wrong passwords get the same 401. Accounts that exist
// but are not active (pending or rejected staff) get 403.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			metrics.Logins.WithLabelValues("rate_limited").Inc()
			jsonapi.Fail(w, r, apperr.RateLimited, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	a, err := h.Accounts.GetByEmail(ctx, req.Email)
	if errors.Is(err, accountstore.ErrNotFound) {
		metrics.Logins.WithLabelValues("unknown").Inc()
		jsonapi.WriteError(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	if !authutil.CheckPassword(req.Password, a.PasswordHash) {
		metrics.Logins.WithLabelValues("bad_password").Inc()
		h.Log.Info("login failed", zap.String("user_id", a.ID.Hex()), zap.String("reason", "bad password"))
		jsonapi.WriteError(w, r, h.Log, errBadCredentials)
		return
	}

	if !a.IsActive {
		metrics.Logins.WithLabelValues("inactive").Inc()
		msg := "your account is awaiting admin approval"
		if a.ApprovalStatus == models.ApprovalRejected {
			msg = "your registration was rejected"
		}
		jsonapi.Fail(w, r, apperr.Forbidden, msg)
		return
	}

	if err := h.Accounts.TouchLastLogin(ctx, a.ID, time.Now()); err != nil {
		h.Log.Warn("touch last login", zap.String("user_id", a.ID.Hex()), zap.Error(err))
	}

	claims := auth.ClaimsFor(a)
	if err := h.SessionMgr.SignIn(w, r, claims); err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	h.Log.Info("user signed in", zap.String("user_id", a.ID.Hex()), zap.String("role", a.Role))
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"user": claims})
}
