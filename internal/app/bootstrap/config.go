// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/studentportal/internal/app/features/register"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PORTAL_MONGO_URI, PORTAL_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "student_portal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "portal-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},
	{Name: "onboarded_cookie_key", Default: "", Desc: "Signing key for the onboarded cookie (blank derives from session_key)"},

	// Registration
	{Name: "student_email_domain", Default: register.DefaultStudentDomain, Desc: "Email domain required for student accounts"},
	{Name: "staff_email_domain", Default: register.DefaultStaffDomain, Desc: "Email domain required for faculty and hod accounts"},

	// Realtime
	{Name: "realtime_broker", Default: BrokerNone, Desc: "Cross-instance realtime broker: none, redis or nats"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address when realtime_broker=redis"},
	{Name: "nats_url", Default: "nats://localhost:4222", Desc: "NATS URL when realtime_broker=nats"},
	{Name: "realtime_idle_timeout", Default: "2m", Desc: "Disconnect realtime clients silent for this long"},
	{Name: "realtime_sweep_interval", Default: "30s", Desc: "How often idle realtime clients are swept"},

	// Error reporting
	{Name: "sentry_dsn", Default: "", Desc: "Sentry DSN (blank disables error reporting)"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of an admin account created on startup if missing"},
	{Name: "admin_password", Default: "", Desc: "Password for the startup admin account"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PORTAL_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PORTAL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:           appValues.String("mongo_uri"),
		MongoDatabase:      appValues.String("mongo_database"),
		MongoMaxPoolSize:   uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:   uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:         appValues.String("session_key"),
		SessionName:        appValues.String("session_name"),
		SessionDomain:      appValues.String("session_domain"),
		SessionMaxAge:      appValues.Duration("session_max_age", 30*24*time.Hour),
		OnboardedCookieKey: appValues.String("onboarded_cookie_key"),

		StudentEmailDomain: strings.ToLower(strings.TrimSpace(appValues.String("student_email_domain"))),
		StaffEmailDomain:   strings.ToLower(strings.TrimSpace(appValues.String("staff_email_domain"))),

		RealtimeBroker:        strings.ToLower(strings.TrimSpace(appValues.String("realtime_broker"))),
		RedisAddr:             appValues.String("redis_addr"),
		NATSURL:               appValues.String("nats_url"),
		RealtimeIdleTimeout:   appValues.Duration("realtime_idle_timeout", 2*time.Minute),
		RealtimeSweepInterval: appValues.Duration("realtime_sweep_interval", 30*time.Second),

		SentryDSN: appValues.String("sentry_dsn"),

		AdminEmail:    normalize.Email(appValues.String("admin_email")),
		AdminPassword: appValues.String("admin_password"),
	}
	if appCfg.RealtimeBroker == "" {
		appCfg.RealtimeBroker = BrokerNone
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked to catch configuration errors early,
// before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.StudentEmailDomain == "" || appCfg.StaffEmailDomain == "" {
		return fmt.Errorf("student_email_domain and staff_email_domain are required")
	}

	switch appCfg.RealtimeBroker {
	case BrokerNone:
	case BrokerRedis:
		if strings.TrimSpace(appCfg.RedisAddr) == "" {
			return fmt.Errorf("realtime_broker=redis requires redis_addr")
		}
	case BrokerNATS:
		if strings.TrimSpace(appCfg.NATSURL) == "" {
			return fmt.Errorf("realtime_broker=nats requires nats_url")
		}
	default:
		return fmt.Errorf("realtime_broker must be none, redis or nats, got %q", appCfg.RealtimeBroker)
	}
	if appCfg.RealtimeIdleTimeout <= 0 || appCfg.RealtimeSweepInterval <= 0 {
		return fmt.Errorf("realtime_idle_timeout and realtime_sweep_interval must be positive")
	}

	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_email and admin_password must be set together")
	}
	return nil
}
