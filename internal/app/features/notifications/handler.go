// internal/app/features/notifications/handler.go
package notifications

import (
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/notify"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.uber.org/zap"
)

// Handler lists the relay's recent events.
type Handler struct {
	Relay *notify.Relay
	Log   *zap.Logger
}

func NewHandler(relay *notify.Relay, logger *zap.Logger) *Handler {
	return &Handler{Relay: relay, Log: logger}
}

// ServeList handles GET /notifications?type=...; type defaults to
// guide-assigned and "all" returns every type.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	typ := normalize.QueryParam(r.URL.Query().Get("type"))
	switch typ {
	case "":
		typ = models.NotificationGuideAssigned
	case "all":
		typ = ""
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"notifications": h.Relay.List(typ)})
}
