// Package gates decides, for every inbound request, whether it may reach a
// handler or must be redirected, and provides handler-level role gates.
//
// # Access Gate
//
// The gate runs as global middleware after the session loader:
//
//  1. Public paths (exact match or "<path>/" prefix) always pass.
//  2. Without a session the caller is sent to "/".
//  3. A user counts as onboarded when the session claim says so, or when the
//     signed onboarded cookie carries the session's own user id.
//  4. A user who is not onboarded is sent to "/onboarding" unless the path is
//     an onboarding page or the onboarding API.
//  5. An onboarded user asking for "/" or an onboarding page is sent to "/dashboard".
//
// Rule 5 can only fire for onboarding pages, since "/" is public and passes
// at rule 1.
//
// The onboarded cookie lives for 30 days and is not reconciled with the
// account afterwards; an account reset server-side keeps passing the gate
// until the cookie expires.
//
// # Role gates
//
// Route groups use auth.RequireRole. Handlers sharing a route with mixed
// access use RequireAnyRole here, which writes the error envelope and
// returns the caller's identity.
package gates

import (
	"net/http"
	"strings"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decision is the outcome of the access gate.
type Decision int

const (
	Pass Decision = iota
	RedirectRoot
	RedirectOnboarding
	RedirectDashboard
)

// Location returns the redirect target for d, or "" for Pass.
func (d Decision) Location() string {
	switch d {
	case RedirectRoot:
		return "/"
	case RedirectOnboarding:
		return "/onboarding"
	case RedirectDashboard:
		return "/dashboard"
	default:
		return ""
	}
}

func (d Decision) String() string {
	switch d {
	case Pass:
		return "pass"
	case RedirectRoot:
		return "redirect-root"
	case RedirectOnboarding:
		return "redirect-onboarding"
	case RedirectDashboard:
		return "redirect-dashboard"
	default:
		return "unknown"
	}
}

// PublicPaths pass the gate without a session.
var PublicPaths = []string{"/", "/register", "/auth", "/favicon.ico", "/static", "/health", "/metrics"}

// OnboardingPaths stay reachable for users who have not finished onboarding.
var OnboardingPaths = []string{"/onboarding", "/user/onboarding"}

const onboardingPage = "/onboarding"

// Decide applies the gate rules. user is nil when there is no session;
// cookieOnboarded reports whether a valid onboarded cookie for the session's
// user was presented.
func Decide(path string, user *auth.SessionUser, cookieOnboarded bool) Decision {
	if matchesAny(path, PublicPaths) {
		return Pass
	}
	if user == nil {
		return RedirectRoot
	}

	onboarded := user.IsOnboarded || cookieOnboarded
	if !onboarded {
		if matchesAny(path, OnboardingPaths) {
			return Pass
		}
		return RedirectOnboarding
	}
	if path == "/" || matches(path, onboardingPage) {
		return RedirectDashboard
	}
	return Pass
}

// Middleware enforces Decide on every request.
func Middleware(sm *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := auth.CurrentUser(r)
			cookieOK := false
			if user != nil && !user.IsOnboarded {
				cookieOK = sm.OnboardedCookieMatches(r, user.ID)
			}

			d := Decide(r.URL.Path, user, cookieOK)
			if d == Pass {
				next.ServeHTTP(w, r)
				return
			}

			status := http.StatusSeeOther
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				status = http.StatusTemporaryRedirect
			}
			http.Redirect(w, r, d.Location(), status)
		})
	}
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if matches(path, p) {
			return true
		}
	}
	return false
}

func matches(path, p string) bool {
	return path == p || strings.HasPrefix(path, p+"/")
}

// Result is the caller identity returned by a role gate.
type Result struct {
	Role       string
	Name       string
	UserID     primitive.ObjectID
	Department string
	OK         bool
}

// RequireAuth ensures a user is signed in. On failure it writes 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
		return Result{}
	}
	return Result{Role: role, Name: name, UserID: uid, Department: authz.Department(r), OK: true}
}

// RequireAnyRole ensures the user is signed in and holds one of allowedRoles.
// It writes 401 or 403 on failure.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, allowedRoles ...string) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	for _, allowed := range allowedRoles {
		if res.Role == allowed {
			return res
		}
	}
	jsonapi.Fail(w, r, apperr.Forbidden, "you do not have access to this resource")
	return Result{}
}
