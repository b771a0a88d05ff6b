// internal/app/bootstrap/connect.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/notify"
	"github.com/dalemusser/studentportal/internal/app/system/ratelimit"
	"github.com/dalemusser/studentportal/internal/app/system/realtime"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Registration attempts allowed per client IP.
const (
	registerLimit  = 20
	registerWindow = time.Hour
)

// ConnectDB opens MongoDB and builds the realtime and notification backends.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	timeouts.ConfigureFromEnv()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	broker, err := connectBroker(ctx, appCfg, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}

	hub := realtime.NewHub(logger, broker)
	relay := notify.NewRelay(notify.MaxEvents, logger)
	relay.Attach(hub)

	return DBDeps{
		PortalMongoClient:   client,
		PortalMongoDatabase: client.Database(appCfg.MongoDatabase),
		Hub:                 hub,
		Relay:               relay,
		Sweeper:             workers.NewRealtimeSweep(hub, logger, appCfg.RealtimeSweepInterval, appCfg.RealtimeIdleTimeout),
		LoginLimiter:        ratelimit.NewLoginLimiter(),
		RegisterLimiter:     ratelimit.New(registerLimit, registerWindow),
	}, nil
}

// connectBroker returns nil when realtime_broker is none.
func connectBroker(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (realtime.Broker, error) {
	switch appCfg.RealtimeBroker {
	case BrokerRedis:
		rdb := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("realtime broker: redis", zap.String("addr", appCfg.RedisAddr))
		return realtime.NewRedisBroker(rdb, realtime.DefaultChannel), nil
	case BrokerNATS:
		nc, err := nats.Connect(appCfg.NATSURL,
			nats.Name("student-portal"),
			nats.Timeout(timeouts.Ping()),
			nats.MaxReconnects(-1))
		if err != nil {
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		logger.Info("realtime broker: nats", zap.String("url", appCfg.NATSURL))
		return realtime.NewNATSBroker(nc, realtime.DefaultChannel), nil
	default:
		return nil, nil
	}
}
