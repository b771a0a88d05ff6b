package login_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studentportal/internal/app/features/login"
	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/app/system/ratelimit"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/dalemusser/studentportal/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "", "portal-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Stop)
	return login.NewHandler(db, sm, limiter, zap.NewNop()), testutil.NewFixtures(t, db)
}

func doLogin(t *testing.T, h *login.Handler, email, password string) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}))
	return rec
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fx.CreateStudent(ctx, "Asha Patel", "22cse001@charusat.edu.in", "CSE", 5)

	rec := doLogin(t, h, "22CSE001@charusat.edu.in", testutil.TestPassword)
	rec.AssertStatus(t, http.StatusOK)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal-session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected a session cookie")
	}

	var body struct {
		User auth.SessionUser `json:"user"`
	}
	rec.DecodeData(t, &body)
	if body.User.ID != s.ID.Hex() || body.User.Department != "CSE" || body.User.AcademicInfo.Semester != 5 {
		t.Errorf("claims: %+v", body.User)
	}

	a, err := accountstore.New(fx.DB()).GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if a.LastLogin == nil {
		t.Error("lastLogin should be set")
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateStudent(ctx, "Asha", "22cse001@charusat.edu.in", "CSE", 5)

	doLogin(t, h, "22cse001@charusat.edu.in", "wrong").AssertStatus(t, http.StatusUnauthorized)
	doLogin(t, h, "nobody@charusat.edu.in", testutil.TestPassword).AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleLogin_InactiveStaffForbidden(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreatePendingStaff(ctx, "mehta@charusat.ac.in", models.RoleFaculty)

	rec := doLogin(t, h, "mehta@charusat.ac.in", testutil.TestPassword)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "awaiting admin approval")
}

func TestHandleLogin_RateLimitedPerEmail(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateStudent(ctx, "Asha", "22cse001@charusat.edu.in", "CSE", 5)

	for i := 0; i < 5; i++ {
		doLogin(t, h, "22cse001@charusat.edu.in", "wrong").AssertStatus(t, http.StatusUnauthorized)
	}
	doLogin(t, h, "22cse001@charusat.edu.in", testutil.TestPassword).AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleLogin_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t)
	doLogin(t, h, "", "").AssertStatus(t, http.StatusBadRequest)
}
