// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/studentportal/internal/app/system/notify"
	"github.com/dalemusser/studentportal/internal/app/system/ratelimit"
	"github.com/dalemusser/studentportal/internal/app/system/realtime"
	"github.com/dalemusser/studentportal/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app. The
// realtime hub, the notification relay and the limiters are process-wide
// and injected into the handlers that use them.
type DBDeps struct {
	PortalMongoClient   *mongo.Client
	PortalMongoDatabase *mongo.Database

	Hub     *realtime.Hub
	Relay   *notify.Relay
	Sweeper *workers.RealtimeSweep

	LoginLimiter    *ratelimit.LoginLimiter
	RegisterLimiter *ratelimit.Limiter
}
