// internal/app/features/realtime/handler.go
package realtime

import (
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	rtsys "github.com/dalemusser/studentportal/internal/app/system/realtime"
	"go.uber.org/zap"
)

// Handler upgrades signed-in users to the realtime websocket.
type Handler struct {
	Hub *rtsys.Hub
	Log *zap.Logger
}

func NewHandler(hub *rtsys.Hub, logger *zap.Logger) *Handler {
	return &Handler{Hub: hub, Log: logger}
}

// ServeWS handles GET /realtime. The request blocks for the life of the
// connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
		return
	}
	// On upgrade failure the upgrader has already answered the client.
	if err := h.Hub.ServeWS(w, r, u.ID); err != nil {
		h.Log.Debug("realtime upgrade failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}
