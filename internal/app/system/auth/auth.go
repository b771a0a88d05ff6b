package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// OnboardedCookieName is the signed cookie that bridges the window between
	// profile completion and the next claims refresh.
	OnboardedCookieName = "onboarded"
	onboardedMaxAge     = 30 * 24 * time.Hour

	isAuthKey        = "is_authenticated"
	userIDKey        = "user_id"
	userNameKey      = "user_name"
	userEmailKey     = "user_email"
	userRoleKey      = "user_role"
	departmentKey    = "department"
	admissionYearKey = "admission_year"
	semesterKey      = "semester"
	sectionKey       = "section"
	rollNumberKey    = "roll_number"
	isOnboardedKey   = "is_onboarded"
	isApprovedKey    = "is_approved"
	approvalKey      = "approval_status"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Claims                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// AcademicInfo is the student's class placement carried in the session.
type AcademicInfo struct {
	Semester   int    `json:"semester,omitempty"`
	Section    string `json:"section,omitempty"`
	RollNumber string `json:"rollNumber,omitempty"`
}

// SessionUser is the claims bundle stored in the session cookie and
// injected into r.Context().
type SessionUser struct {
	ID             string       `json:"id"`
	Name           string       `json:"name,omitempty"`
	Email          string       `json:"email"`
	Role           string       `json:"role"`
	Department     string       `json:"department,omitempty"`
	AdmissionYear  int          `json:"admissionYear,omitempty"`
	AcademicInfo   AcademicInfo `json:"academicInfo"`
	IsOnboarded    bool         `json:"isOnboarded"`
	IsApproved     bool         `json:"isApproved"`
	ApprovalStatus string       `json:"approvalStatus,omitempty"`
}

// ClaimsFor builds the session claims for a stored account.
func ClaimsFor(a *models.Account) SessionUser {
	return SessionUser{
		ID:            a.ID.Hex(),
		Name:          a.Name,
		Email:         a.Email,
		Role:          a.Role,
		Department:    a.Department,
		AdmissionYear: a.AdmissionYear,
		AcademicInfo: AcademicInfo{
			Semester:   a.Semester,
			Section:    a.Section,
			RollNumber: a.RollNumber,
		},
		IsOnboarded:    a.IsOnboarded,
		IsApproved:     a.IsApproved,
		ApprovalStatus: a.ApprovalStatus,
	}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user and whether one is present.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context, bypassing the cookie.
// Intended for handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager issues and reads the claims session and the onboarded cookie.
type SessionManager struct {
	store     *sessions.CookieStore
	name      string
	onboarded *securecookie.SecureCookie
	cookieOpt sessions.Options
	log       *zap.Logger
}

// NewSessionManager builds the cookie store.
//
// In production (secure=true) cookies are Secure with SameSite=None; over
// plain-http local development use secure=false and SameSite=Lax applies.
// When onboardedKey is empty a signing key is derived from sessionKey.
func NewSessionManager(sessionKey, onboardedKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "portal-session"
	}

	opts := sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	o := opts
	store.Options = &o

	if onboardedKey == "" {
		sum := sha256.Sum256([]byte("onboarded:" + sessionKey))
		onboardedKey = string(sum[:])
	}
	sc := securecookie.New([]byte(onboardedKey), nil)
	sc.MaxAge(int(onboardedMaxAge.Seconds()))

	logger.Info("session manager initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, onboarded: sc, cookieOpt: opts, log: logger}, nil
}

// LoadSessionUser injects the claims into context when the session is authenticated.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Tampered or rotated-key cookies decode to an empty session.
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			r = withUser(r, fromSession(sess))
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores u as the session claims.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	toSession(sess, u)
	return sess.Save(r, w)
}

// SignOut expires the session and the onboarded cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	m.ClearOnboardedCookie(w)
	return sess.Save(r, w)
}

// SetOnboardedCookie issues the signed onboarded=<userID> cookie for 30 days.
func (m *SessionManager) SetOnboardedCookie(w http.ResponseWriter, userID string) error {
	encoded, err := m.onboarded.Encode(OnboardedCookieName, userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     OnboardedCookieName,
		Value:    encoded,
		Path:     "/",
		Domain:   m.cookieOpt.Domain,
		MaxAge:   int(onboardedMaxAge.Seconds()),
		Secure:   m.cookieOpt.Secure,
		HttpOnly: true,
		SameSite: m.cookieOpt.SameSite,
	})
	return nil
}

// ClearOnboardedCookie expires the onboarded cookie.
func (m *SessionManager) ClearOnboardedCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     OnboardedCookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.cookieOpt.Domain,
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// OnboardedCookieMatches reports whether the request carries a valid
// onboarded cookie for userID. Missing, expired or tampered cookies all
// read as false.
func (m *SessionManager) OnboardedCookieMatches(r *http.Request, userID string) bool {
	if userID == "" {
		return false
	}
	c, err := r.Cookie(OnboardedCookieName)
	if err != nil {
		return false
	}
	var got string
	if err := m.onboarded.Decode(OnboardedCookieName, c.Value, &got); err != nil {
		return false
	}
	return got == userID
}

/*─────────────────────────────────────────────────────────────────────────────*
| Route guards                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireSignedIn answers 401 with the error envelope when no user is in context.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 when signed out and 403 when the role is not allowed.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonapi.Fail(w, r, apperr.Unauthorized, "sign in required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				jsonapi.Fail(w, r, apperr.Forbidden, "you do not have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func toSession(s *sessions.Session, u SessionUser) {
	s.Values[userIDKey] = u.ID
	s.Values[userNameKey] = u.Name
	s.Values[userEmailKey] = u.Email
	s.Values[userRoleKey] = u.Role
	s.Values[departmentKey] = u.Department
	s.Values[admissionYearKey] = u.AdmissionYear
	s.Values[semesterKey] = u.AcademicInfo.Semester
	s.Values[sectionKey] = u.AcademicInfo.Section
	s.Values[rollNumberKey] = u.AcademicInfo.RollNumber
	s.Values[isOnboardedKey] = u.IsOnboarded
	s.Values[isApprovedKey] = u.IsApproved
	s.Values[approvalKey] = u.ApprovalStatus
}

func fromSession(s *sessions.Session) *SessionUser {
	return &SessionUser{
		ID:            getString(s, userIDKey),
		Name:          getString(s, userNameKey),
		Email:         getString(s, userEmailKey),
		Role:          getString(s, userRoleKey),
		Department:    getString(s, departmentKey),
		AdmissionYear: getInt(s, admissionYearKey),
		AcademicInfo: AcademicInfo{
			Semester:   getInt(s, semesterKey),
			Section:    getString(s, sectionKey),
			RollNumber: getString(s, rollNumberKey),
		},
		IsOnboarded:    getBool(s, isOnboardedKey),
		IsApproved:     getBool(s, isApprovedKey),
		ApprovalStatus: getString(s, approvalKey),
	}
}

func getString(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

func getInt(s *sessions.Session, key string) int {
	v, _ := s.Values[key].(int)
	return v
}

func getBool(s *sessions.Session, key string) bool {
	v, _ := s.Values[key].(bool)
	return v
}
