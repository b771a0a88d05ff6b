package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/studentportal/internal/app/features/logout"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"go.uber.org/zap"
)

func TestHandleLogout_ExpiresCookies(t *testing.T) {
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "", "portal-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := logout.NewHandler(sm, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	expired := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired[c.Name] = true
		}
	}
	if !expired["portal-session"] {
		t.Error("session cookie should be expired")
	}
	if !expired[auth.OnboardedCookieName] {
		t.Error("onboarded cookie should be expired")
	}
}
