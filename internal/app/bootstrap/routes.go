// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	assignmentsfeature "github.com/dalemusser/studentportal/internal/app/features/assignments"
	counselorsfeature "github.com/dalemusser/studentportal/internal/app/features/counselors"
	dashboardfeature "github.com/dalemusser/studentportal/internal/app/features/dashboard"
	facultyfeature "github.com/dalemusser/studentportal/internal/app/features/faculty"
	healthfeature "github.com/dalemusser/studentportal/internal/app/features/health"
	loginfeature "github.com/dalemusser/studentportal/internal/app/features/login"
	logoutfeature "github.com/dalemusser/studentportal/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/studentportal/internal/app/features/notifications"
	onboardingfeature "github.com/dalemusser/studentportal/internal/app/features/onboarding"
	projectsfeature "github.com/dalemusser/studentportal/internal/app/features/projects"
	realtimefeature "github.com/dalemusser/studentportal/internal/app/features/realtime"
	registerfeature "github.com/dalemusser/studentportal/internal/app/features/register"
	registrationsfeature "github.com/dalemusser/studentportal/internal/app/features/registrations"
	studentsfeature "github.com/dalemusser/studentportal/internal/app/features/students"
	subjectsfeature "github.com/dalemusser/studentportal/internal/app/features/subjects"
	timetablefeature "github.com/dalemusser/studentportal/internal/app/features/timetable"
	userinfofeature "github.com/dalemusser/studentportal/internal/app/features/userinfo"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/gates"
	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Every request passes the session loader and then the access gate before
// reaching a feature router. Role checks live on the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.OnboardedCookieKey,
		appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.PortalMongoDatabase
	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(gates.Middleware(sessionMgr))

	// Operations
	healthHandler := healthfeature.NewHandler(deps.PortalMongoClient, deps.Hub, appCfg.RealtimeBroker, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Authentication
	registerHandler := registerfeature.NewHandler(db, appCfg.StudentEmailDomain, appCfg.StaffEmailDomain, logger)
	registerfeature.MountRoutes(r, registerHandler, deps.RegisterLimiter.Middleware)

	loginHandler := loginfeature.NewHandler(db, sessionMgr, deps.LoginLimiter, logger)
	loginfeature.MountRoutes(r, loginHandler, nil)

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	logoutfeature.MountRoutes(r, logoutHandler)

	// Current user
	onboardingHandler := onboardingfeature.NewHandler(db, sessionMgr, logger)
	onboardingfeature.MountRoutes(r, onboardingHandler, sessionMgr)

	userinfoHandler := userinfofeature.NewHandler(db, logger)
	userinfofeature.MountRoutes(r, userinfoHandler, sessionMgr)

	dashboardHandler := dashboardfeature.NewHandler(db, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Project groups and weekly reports
	projectsHandler := projectsfeature.NewHandler(db, deps.Relay, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler, sessionMgr))

	// Notifications and realtime delivery
	notificationsHandler := notificationsfeature.NewHandler(deps.Relay, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	realtimeHandler := realtimefeature.NewHandler(deps.Hub, logger)
	realtimefeature.MountRoutes(r, realtimeHandler, sessionMgr)

	// Directories and administration
	studentsHandler := studentsfeature.NewHandler(db, logger)
	r.Mount("/students", studentsfeature.Routes(studentsHandler, sessionMgr))

	facultyHandler := facultyfeature.NewHandler(db, logger)
	r.Mount("/faculty", facultyfeature.Routes(facultyHandler, sessionMgr))

	registrationsHandler := registrationsfeature.NewHandler(db, logger)
	r.Mount("/admin/registrations", registrationsfeature.Routes(registrationsHandler, sessionMgr))

	counselorsHandler := counselorsfeature.NewHandler(db, logger)
	counselorsfeature.MountRoutes(r, counselorsHandler, sessionMgr)

	// Academic catalogue
	subjectsHandler := subjectsfeature.NewHandler(db, logger)
	r.Mount("/subjects", subjectsfeature.Routes(subjectsHandler, sessionMgr))

	timetableHandler := timetablefeature.NewHandler(db, logger)
	timetablefeature.MountRoutes(r, timetableHandler, sessionMgr)

	assignmentsHandler := assignmentsfeature.NewHandler(db, logger)
	r.Mount("/assignments", assignmentsfeature.Routes(assignmentsHandler, sessionMgr))

	return r, nil
}
