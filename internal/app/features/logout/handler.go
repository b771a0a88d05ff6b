// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// HandleLogout handles POST /auth/logout. It always succeeds; a session
// that fails to save is logged and the cookies are still expired.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: save session", zap.Error(err))
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]bool{"signedOut": true})
}
