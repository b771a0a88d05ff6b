// Command portalprune deletes every account except the oldest admin, and
// every project group. It reads the same PORTAL_* configuration as the
// server and refuses to run unless PORTAL_PRUNE_CONFIRM=yes.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dalemusser/studentportal/internal/app/bootstrap"
	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	projectgroupstore "github.com/dalemusser/studentportal/internal/app/store/projectgroups"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("prune failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	if os.Getenv("PORTAL_PRUNE_CONFIRM") != "yes" {
		return errors.New("set PORTAL_PRUNE_CONFIRM=yes to delete all accounts except the oldest admin")
	}

	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return err
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return err
	}
	timeouts.ConfigureFromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(appCfg.MongoDatabase)

	accounts := accountstore.New(db)
	admin, err := accounts.OldestAdmin(ctx)
	if errors.Is(err, accountstore.ErrNotFound) {
		return errors.New("no admin account found; aborting to avoid deleting everything")
	}
	if err != nil {
		return err
	}
	logger.Info("preserving admin", zap.String("id", admin.ID.Hex()), zap.String("email", admin.Email))

	removed, err := accounts.PruneExcept(ctx, admin.ID)
	if err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}
	logger.Info("deleted accounts", zap.Int64("count", removed))

	groups, err := projectgroupstore.New(db).DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("delete project groups: %w", err)
	}
	logger.Info("deleted project groups", zap.Int64("count", groups))
	return nil
}
