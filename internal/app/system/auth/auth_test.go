package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// replay copies Set-Cookie headers from rec onto a new request.
func replay(rec *httptest.ResponseRecorder, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestSignIn_RoundTripsClaims(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	want := auth.SessionUser{
		ID:             "64b7f0c2a1b2c3d4e5f60718",
		Name:           "Asha Patel",
		Email:          "22cse001@charusat.edu.in",
		Role:           "student",
		Department:     "CSE",
		AdmissionYear:  2022,
		AcademicInfo:   auth.AcademicInfo{Semester: 5, Section: "B", RollNumber: "22CSE001"},
		IsOnboarded:    true,
		IsApproved:     true,
		ApprovalStatus: "approved",
	}
	if err := sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil), want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), replay(rec, http.MethodGet, "/dashboard"))

	if got == nil {
		t.Fatal("expected user in context")
	}
	if *got != want {
		t.Errorf("claims: got %+v, want %+v", *got, want)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user in context")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("next handler not called")
	}
}

func TestOnboardedCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	const id = "64b7f0c2a1b2c3d4e5f60718"

	rec := httptest.NewRecorder()
	if err := sm.SetOnboardedCookie(rec, id); err != nil {
		t.Fatalf("SetOnboardedCookie: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != auth.OnboardedCookieName || c.Path != "/" || c.MaxAge != 30*24*60*60 {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}

	req := replay(rec, http.MethodGet, "/dashboard")
	if !sm.OnboardedCookieMatches(req, id) {
		t.Error("cookie should match its own user id")
	}
	if sm.OnboardedCookieMatches(req, "64b7f0c2a1b2c3d4e5f60719") {
		t.Error("cookie must not match another user id")
	}
}

func TestOnboardedCookie_TamperedIsIgnored(t *testing.T) {
	sm := newTestSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.OnboardedCookieName, Value: "64b7f0c2a1b2c3d4e5f60718"})

	if sm.OnboardedCookieMatches(req, "64b7f0c2a1b2c3d4e5f60718") {
		t.Error("an unsigned cookie must not count as onboarded")
	}
}

func TestSignOut_ExpiresCookies(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	expired := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired++
		}
	}
	if expired != 2 {
		t.Errorf("expected session and onboarded cookies expired, got %d", expired)
	}
}

func TestRequireSignedIn(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("signed out: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest(http.MethodGet, "/projects", nil), &auth.SessionUser{ID: "x", Role: "student"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed in: got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireRole("admin", "HOD")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"signed out", nil, http.StatusUnauthorized},
		{"student", &auth.SessionUser{ID: "1", Role: "student"}, http.StatusForbidden},
		{"hod", &auth.SessionUser{ID: "2", Role: "hod"}, http.StatusOK},
		{"admin", &auth.SessionUser{ID: "3", Role: "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
