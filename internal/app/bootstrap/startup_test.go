package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/authutil"
	"github.com/dalemusser/studentportal/internal/app/system/notify"
	"github.com/dalemusser/studentportal/internal/app/system/ratelimit"
	"github.com/dalemusser/studentportal/internal/app/system/realtime"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/dalemusser/studentportal/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "student_portal",
		MongoMaxPoolSize:      100,
		MongoMinPoolSize:      10,
		SessionKey:            "0123456789abcdef0123456789abcdef",
		SessionName:           "portal-session",
		SessionMaxAge:         time.Hour,
		StudentEmailDomain:    "charusat.edu.in",
		StaffEmailDomain:      "charusat.ac.in",
		RealtimeBroker:        BrokerNone,
		RealtimeIdleTimeout:   2 * time.Minute,
		RealtimeSweepInterval: 30 * time.Second,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://localhost" }, "invalid MongoDB URI"},
		{"no database", func(c *AppConfig) { c.MongoDatabase = " " }, "mongo_database"},
		{"short session key", func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"pool sizes", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, "mongo_min_pool_size"},
		{"unknown broker", func(c *AppConfig) { c.RealtimeBroker = "kafka" }, "realtime_broker"},
		{"redis without addr", func(c *AppConfig) { c.RealtimeBroker = BrokerRedis; c.RedisAddr = "" }, "redis_addr"},
		{"nats without url", func(c *AppConfig) { c.RealtimeBroker = BrokerNATS; c.NATSURL = "" }, "nats_url"},
		{"redis ok", func(c *AppConfig) { c.RealtimeBroker = BrokerRedis; c.RedisAddr = "localhost:6379" }, ""},
		{"admin email alone", func(c *AppConfig) { c.AdminEmail = "root@charusat.ac.in" }, "admin_email"},
		{"zero sweep", func(c *AppConfig) { c.RealtimeSweepInterval = 0 }, "realtime_sweep_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{PortalMongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "root@charusat.ac.in", "Str0ng-Admin!", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	a, err := accountstore.New(db).GetByEmail(ctx, "root@charusat.ac.in")
	if err != nil {
		t.Fatalf("failed to find created admin: %v", err)
	}
	if a.Role != models.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", a.Role)
	}
	if !a.IsActive || !a.IsOnboarded {
		t.Errorf("admin should be active and onboarded: %+v", a)
	}
	if !authutil.CheckPassword("Str0ng-Admin!", a.PasswordHash) {
		t.Error("stored hash does not match the seed password")
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{PortalMongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := ensureAdmin(ctx, deps, "root@charusat.ac.in", "Str0ng-Admin!", testLogger()); err != nil {
			t.Fatalf("ensureAdmin #%d failed: %v", i+1, err)
		}
	}
	n, err := accountstore.New(db).Count(ctx, accountstore.Filter{Roles: []string{models.RoleAdmin}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}
}

func TestEnsureAdmin_RejectsWeakPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := ensureAdmin(ctx, DBDeps{PortalMongoDatabase: db}, "root@charusat.ac.in", "charusat", testLogger())
	if err == nil {
		t.Fatal("expected a weak seed password to be rejected")
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	hub := realtime.NewHub(testLogger(), nil)
	t.Cleanup(hub.Close)
	relay := notify.NewRelay(0, testLogger())
	relay.Attach(hub)
	deps := DBDeps{
		PortalMongoClient:   db.Client(),
		PortalMongoDatabase: db,
		Hub:                 hub,
		Relay:               relay,
		LoginLimiter:        ratelimit.NewLoginLimiter(),
		RegisterLimiter:     ratelimit.New(registerLimit, registerWindow),
	}
	t.Cleanup(deps.LoginLimiter.Stop)
	t.Cleanup(deps.RegisterLimiter.Stop)

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		status       int
		location     string
	}{
		{http.MethodGet, "/health", http.StatusOK, ""},
		{http.MethodGet, "/metrics", http.StatusOK, ""},
		{http.MethodPost, "/auth/login", http.StatusBadRequest, ""},
		{http.MethodGet, "/dashboard", http.StatusSeeOther, "/"},
		{http.MethodGet, "/projects", http.StatusSeeOther, "/"},
		{http.MethodPost, "/projects", http.StatusTemporaryRedirect, "/"},
		{http.MethodGet, "/subjects", http.StatusSeeOther, "/"},
		{http.MethodGet, "/timetable", http.StatusSeeOther, "/"},
		{http.MethodGet, "/assignments", http.StatusSeeOther, "/"},
		{http.MethodPost, "/admin/timetable-import", http.StatusTemporaryRedirect, "/"},
		{http.MethodPost, "/admin/assign-counselor", http.StatusTemporaryRedirect, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}
