package health

import (
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// RealtimeStats is implemented by *realtime.Hub.
type RealtimeStats interface {
	ClientCount() int
	NodeID() string
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client   *mongo.Client
	Realtime RealtimeStats
	Broker   string
	Log      *zap.Logger
}

// NewHandler constructs a health Handler. rt may be nil; broker names the
// configured realtime fan-out ("none", "redis" or "nats").
func NewHandler(client *mongo.Client, rt RealtimeStats, broker string, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Realtime: rt,
		Broker:   broker,
		Log:      logger,
	}
}

type healthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Realtime *realtimeStatus `json:"realtime,omitempty"`
}

type realtimeStatus struct {
	Node    string `json:"node"`
	Clients int    `json:"clients"`
	Broker  string `json:"broker"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "ok":true, "data":{ "status":"ok", "database":"connected", "realtime":{...} } }
//
// On DB failure: 503 with error code "unavailable".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health ping")
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		jsonapi.WriteError(w, r, h.Log, apperr.Wrap(apperr.Unavailable, "Database unavailable", err))
		return
	}

	resp := healthResponse{Status: "ok", Database: "connected"}
	if h.Realtime != nil {
		broker := h.Broker
		if broker == "" {
			broker = "none"
		}
		resp.Realtime = &realtimeStatus{
			Node:    h.Realtime.NodeID(),
			Clients: h.Realtime.ClientCount(),
			Broker:  broker,
		}
	}
	jsonapi.WriteOK(w, http.StatusOK, resp)
}
