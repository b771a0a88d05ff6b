package register_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/studentportal/internal/app/features/register"
	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/authutil"
	"github.com/dalemusser/studentportal/internal/app/system/indexes"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/dalemusser/studentportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*register.Handler, *accountstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return register.NewHandler(db, "", "", zap.NewNop()), accountstore.New(db)
}

func post(t *testing.T, h *register.Handler, body map[string]any) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", body))
	return rec
}

func TestHandleRegister_Student(t *testing.T) {
	h, accounts := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := post(t, h, map[string]any{"email": "22CE045@Charusat.edu.in", "password": "x", "role": "student"})
	rec.AssertStatus(t, http.StatusCreated)

	var body struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	rec.DecodeData(t, &body)
	if body.User.Email != "22ce045@charusat.edu.in" || body.User.Role != models.RoleStudent || body.User.ID == "" {
		t.Errorf("user: %+v", body.User)
	}

	a, err := accounts.GetByEmail(ctx, "22ce045@charusat.edu.in")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if a.AdmissionYear != 2022 || a.Department != "CE" {
		t.Errorf("backfill: year=%d dept=%q", a.AdmissionYear, a.Department)
	}
	if !a.IsActive || !a.IsApproved || a.ApprovalStatus != models.ApprovalApproved {
		t.Errorf("student should be active and approved: %+v", a)
	}
	if a.IsOnboarded {
		t.Error("new account should not be onboarded")
	}
	if !authutil.CheckPassword("x", a.PasswordHash) {
		t.Error("password hash does not verify")
	}
}

func TestHandleRegister_StaffIsPending(t *testing.T) {
	h, accounts := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post(t, h, map[string]any{"email": "mehta@charusat.ac.in", "password": "secret", "role": "faculty"}).
		AssertStatus(t, http.StatusCreated)

	a, err := accounts.GetByEmail(ctx, "mehta@charusat.ac.in")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if a.IsActive || a.IsApproved || a.ApprovalStatus != models.ApprovalPending {
		t.Errorf("staff should start pending and inactive: %+v", a)
	}
}

func TestHandleRegister_Rejections(t *testing.T) {
	h, accounts := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name  string
		body  map[string]any
		email string
	}{
		{"student on staff domain", map[string]any{"email": "s@charusat.ac.in", "password": "x", "role": "student"}, "s@charusat.ac.in"},
		{"faculty on student domain", map[string]any{"email": "f@charusat.edu.in", "password": "x", "role": "faculty"}, "f@charusat.edu.in"},
		{"lookalike domain", map[string]any{"email": "s@evilcharusat.edu.in", "password": "x", "role": "student"}, "s@evilcharusat.edu.in"},
		{"admin role", map[string]any{"email": "a@charusat.ac.in", "password": "x", "role": "admin"}, "a@charusat.ac.in"},
		{"missing password", map[string]any{"email": "p@charusat.edu.in", "role": "student"}, "p@charusat.edu.in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.body)
			rec.AssertStatus(t, http.StatusBadRequest)
			if _, err := accounts.GetByEmail(ctx, tt.email); err != accountstore.ErrNotFound {
				t.Errorf("account should not exist, got err=%v", err)
			}
		})
	}
}

func TestHandleRegister_Duplicate(t *testing.T) {
	h, accounts := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post(t, h, map[string]any{"email": "22cse001@charusat.edu.in", "password": "first", "role": "student"}).
		AssertStatus(t, http.StatusCreated)
	before, err := accounts.GetByEmail(ctx, "22cse001@charusat.edu.in")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	rec := post(t, h, map[string]any{"email": "22CSE001@charusat.edu.in", "password": "second", "role": "student"})
	rec.AssertStatus(t, http.StatusConflict)

	after, err := accounts.GetByEmail(ctx, "22cse001@charusat.edu.in")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if after.PasswordHash != before.PasswordHash || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("existing account was modified")
	}
}

func TestHandleRegister_SchemaRejectionIsBadRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A validator no student email can satisfy.
	schema := bson.M{"$jsonSchema": bson.M{
		"properties": bson.M{"email": bson.M{"bsonType": "string", "maxLength": 5}},
	}}
	if err := db.CreateCollection(ctx, "accounts", options.CreateCollection().SetValidator(schema)); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	h := register.NewHandler(db, "", "", zap.NewNop())
	rec := post(t, h, map[string]any{"email": "22ce045@charusat.edu.in", "password": "x", "role": "student"})
	rec.AssertStatus(t, http.StatusBadRequest)
	if code := rec.ErrorCode(t); code != "bad_request" {
		t.Errorf("error code: got %q", code)
	}
}
