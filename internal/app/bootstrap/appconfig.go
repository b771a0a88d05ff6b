// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey         string        // Secret key for signing session cookies (must be strong in production)
	SessionName        string        // Cookie name for sessions (default: portal-session)
	SessionDomain      string        // Cookie domain (blank means current host)
	SessionMaxAge      time.Duration // Session cookie lifetime
	OnboardedCookieKey string        // Signing key for the onboarded cookie (blank derives from SessionKey)

	// Registration
	StudentEmailDomain string
	StaffEmailDomain   string

	// Realtime fan-out
	RealtimeBroker        string // none, redis or nats
	RedisAddr             string
	NATSURL               string
	RealtimeIdleTimeout   time.Duration
	RealtimeSweepInterval time.Duration

	// Error reporting (blank disables Sentry)
	SentryDSN string

	// Admin seed; both must be set for an admin to be created at startup.
	AdminEmail    string
	AdminPassword string
}

// Realtime broker kinds.
const (
	BrokerNone  = "none"
	BrokerRedis = "redis"
	BrokerNATS  = "nats"
)
