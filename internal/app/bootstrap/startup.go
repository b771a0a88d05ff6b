// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/authutil"
	"github.com/dalemusser/studentportal/internal/app/system/observability"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// flushSentry is replaced by Startup when a DSN is configured.
var flushSentry = func() {}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	flush, err := observability.InitSentry(appCfg.SentryDSN, coreCfg.Env, "")
	if err != nil {
		// Reporting is optional; the portal runs without it.
		logger.Warn("sentry init failed", zap.Error(err))
	}
	flushSentry = flush

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return err
		}
	}

	if err := deps.Hub.Start(); err != nil {
		return fmt.Errorf("realtime broker subscribe: %w", err)
	}
	deps.Sweeper.Start()
	return nil
}

// ensureAdmin creates an admin account for email unless one exists. The
// seed password must pass the full password rules.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if err := authutil.ValidatePassword(password); err != nil {
		return fmt.Errorf("admin_password: %w", err)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	created, err := accountstore.New(deps.PortalMongoDatabase).EnsureAdmin(ctx, email, hash)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("admin account created", zap.String("email", email))
	} else {
		logger.Debug("admin account already exists", zap.String("email", email))
	}
	return nil
}
