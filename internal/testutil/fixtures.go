package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of every fixture account.
const TestPassword = "Portal#2024"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

var hashed []byte

func passwordHash(t *testing.T) string {
	t.Helper()
	if hashed == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash test password: %v", err)
		}
		hashed = h
	}
	return string(hashed)
}

// CreateAccount inserts a as given, filling the id, password hash and
// timestamps when they are zero.
func (f *Fixtures) CreateAccount(ctx context.Context, a models.Account) models.Account {
	f.t.Helper()

	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.PasswordHash == "" {
		a.PasswordHash = passwordHash(f.t)
	}
	if a.ApprovalStatus == "" {
		a.ApprovalStatus = models.ApprovalApproved
	}
	if a.Name != "" {
		a.NameCI = text.Fold(a.Name)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	if _, err := f.db.Collection("accounts").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test account %s: %v", a.Email, err)
	}
	return a
}

// CreateStudent creates an onboarded, approved student.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email, dept string, semester int) models.Account {
	f.t.Helper()
	return f.CreateAccount(ctx, models.Account{
		Email:          email,
		Role:           models.RoleStudent,
		Name:           name,
		Department:     dept,
		AdmissionYear:  2022,
		PhoneNumber:    "9876543210",
		Address:        "Changa, Gujarat",
		RollNumber:     "22" + dept + "001",
		Semester:       semester,
		Section:        "A",
		IsOnboarded:    true,
		IsRegistered:   true,
		IsApproved:     true,
		ApprovalStatus: models.ApprovalApproved,
		IsActive:       true,
	})
}

// CreateStaff creates an onboarded, approved faculty or hod account.
func (f *Fixtures) CreateStaff(ctx context.Context, name, email, role, dept string) models.Account {
	f.t.Helper()
	return f.CreateAccount(ctx, models.Account{
		Email:          email,
		Role:           role,
		Name:           name,
		Department:     dept,
		PhoneNumber:    "9876543210",
		Address:        "Changa, Gujarat",
		Specialization: "Distributed Systems",
		Education:      "PhD",
		IsOnboarded:    true,
		IsRegistered:   true,
		IsApproved:     true,
		ApprovalStatus: models.ApprovalApproved,
		IsActive:       true,
	})
}

// CreatePendingStaff creates a freshly registered faculty or hod awaiting approval.
func (f *Fixtures) CreatePendingStaff(ctx context.Context, email, role string) models.Account {
	f.t.Helper()
	return f.CreateAccount(ctx, models.Account{
		Email:          email,
		Role:           role,
		IsRegistered:   true,
		ApprovalStatus: models.ApprovalPending,
	})
}

// CreateAdmin creates an active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.Account {
	f.t.Helper()
	return f.CreateAccount(ctx, models.Account{
		Email:          email,
		Role:           models.RoleAdmin,
		Name:           name,
		IsOnboarded:    true,
		IsRegistered:   true,
		IsApproved:     true,
		ApprovalStatus: models.ApprovalApproved,
		IsActive:       true,
	})
}

// CreateGroup creates a submitted project group led by leader with the
// given additional members, in the leader's department.
func (f *Fixtures) CreateGroup(ctx context.Context, groupID, title string, leader models.Account, members ...models.Account) models.ProjectGroup {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.ProjectGroup{
		ID:            primitive.NewObjectID(),
		GroupID:       groupID,
		ChatRoomID:    "grp_" + groupID,
		Title:         title,
		Department:    leader.Department,
		Semester:      leader.Semester,
		Members:       []models.GroupMember{{Student: leader.ID, Role: models.MemberRoleLeader}},
		Leader:        leader.ID,
		Status:        models.GroupStatusSubmitted,
		WeeklyReports: []models.WeeklyReport{},
		CreatedBy:     leader.ID,
		Revision:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if g.Semester == 0 {
		g.Semester = 5
	}
	for _, m := range members {
		g.Members = append(g.Members, models.GroupMember{Student: m.ID, Role: models.MemberRoleMember})
	}

	if _, err := f.db.Collection("project_groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group %s: %v", groupID, err)
	}
	return g
}
