// internal/app/features/userinfo/handler.go
package userinfo

import (
	"errors"
	"net/http"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's stored profile.
type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accountstore.New(db), Log: logger}
}

// ServeMe returns the current account. The session claims may lag the
// stored profile (for example right after onboarding), so this always
// reads the database.
//
// Response format:
//
//	{ "ok": true, "data": { "user": { ...account } } }
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user me")
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, uid)
	if errors.Is(err, accountstore.ErrNotFound) {
		jsonapi.Fail(w, r, apperr.NotFound, "account not found")
		return
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"user": a})
}
