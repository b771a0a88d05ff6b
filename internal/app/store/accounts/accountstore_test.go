package accountstore_test

import (
	"errors"
	"testing"
	"time"

	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	"github.com/dalemusser/studentportal/internal/app/system/indexes"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/dalemusser/studentportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_NormalizesAndRejectsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	created, err := store.Create(ctx, models.Account{
		Email:          "  22CE001@Charusat.EDU.in ",
		PasswordHash:   "hash",
		Role:           models.RoleStudent,
		ApprovalStatus: models.ApprovalApproved,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID || created.CreatedAt.IsZero() {
		t.Error("expected id and timestamps to be assigned")
	}
	if created.Email != "22ce001@charusat.edu.in" {
		t.Errorf("email not normalized: %q", created.Email)
	}

	_, err = store.Create(ctx, models.Account{
		Email:          "22ce001@charusat.edu.in",
		PasswordHash:   "other",
		Role:           models.RoleStudent,
		ApprovalStatus: models.ApprovalApproved,
	})
	if !errors.Is(err, accountstore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	got, err := store.GetByEmail(ctx, "22CE001@charusat.edu.in")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.PasswordHash != "hash" {
		t.Error("duplicate create must not modify the existing account")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FindByIDsAndEmails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateStudent(ctx, "Asha Patel", "22ce001@charusat.edu.in", "CE", 5)
	b := fx.CreateStudent(ctx, "Bhavin Shah", "22ce002@charusat.edu.in", "CE", 5)

	byID, err := store.FindByIDs(ctx, []primitive.ObjectID{a.ID, primitive.NewObjectID()})
	if err != nil || len(byID) != 1 || byID[0].ID != a.ID {
		t.Errorf("FindByIDs: got %v, %v", byID, err)
	}

	byEmail, err := store.FindByEmails(ctx, []string{"22CE002@charusat.edu.in", "nobody@charusat.edu.in"})
	if err != nil || len(byEmail) != 1 || byEmail[0].ID != b.ID {
		t.Errorf("FindByEmails: got %v, %v", byEmail, err)
	}

	if none, err := store.FindByIDs(ctx, nil); err != nil || none != nil {
		t.Errorf("empty FindByIDs: got %v, %v", none, err)
	}
}

func TestStore_CompleteOnboarding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct := fx.CreateAccount(ctx, models.Account{Email: "22it010@charusat.edu.in", Role: models.RoleStudent})

	got, err := store.CompleteOnboarding(ctx, acct.ID, accountstore.Profile{
		Name:          "  Riya   Desai ",
		PhoneNumber:   "9999999999",
		Address:       "Anand",
		Department:    "IT",
		AdmissionYear: 2022,
		RollNumber:    "22IT010",
		Semester:      5,
		Section:       "B",
		Interests:     []string{"IoT"},
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if !got.IsOnboarded || got.Name != "Riya Desai" || got.Semester != 5 || got.Section != "B" {
		t.Errorf("unexpected account after onboarding: %+v", got)
	}
	if got.Specialization != "" {
		t.Error("staff fields must stay empty for a student")
	}

	if _, err := store.CompleteOnboarding(ctx, primitive.NewObjectID(), accountstore.Profile{Name: "x"}); !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetApproval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pending := fx.CreatePendingStaff(ctx, "prof@charusat.ac.in", models.RoleFaculty)

	got, err := store.SetApproval(ctx, pending.ID, true, models.RoleHOD)
	if err != nil {
		t.Fatalf("SetApproval: %v", err)
	}
	if !got.IsApproved || !got.IsActive || got.ApprovalStatus != models.ApprovalApproved || got.Role != models.RoleHOD {
		t.Errorf("approve: got %+v", got)
	}

	got, err = store.SetApproval(ctx, pending.ID, false, "")
	if err != nil {
		t.Fatalf("SetApproval reject: %v", err)
	}
	if got.IsApproved || got.IsActive || got.ApprovalStatus != models.ApprovalRejected {
		t.Errorf("reject: got %+v", got)
	}

	admin := fx.CreateAdmin(ctx, "Root", "root@charusat.ac.in")
	if _, err := store.SetApproval(ctx, admin.ID, false, ""); !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("admins cannot be rejected, got %v", err)
	}
}

func TestStore_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateStudent(ctx, "Zara Khan", "22ce003@charusat.edu.in", "CE", 5)
	fx.CreateStudent(ctx, "Arjun Mehta", "22ce004@charusat.edu.in", "CE", 3)
	fx.CreateStudent(ctx, "Dev (IT)", "22it004@charusat.edu.in", "IT", 5)
	fx.CreateStaff(ctx, "Prof. Nair", "nair@charusat.ac.in", models.RoleFaculty, "CE")

	students, err := store.List(ctx, accountstore.Filter{Roles: []string{models.RoleStudent}, Department: "CE"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(students) != 2 || students[0].Name != "Arjun Mehta" {
		t.Errorf("expected 2 CE students sorted by name, got %v", students)
	}

	sem5, _ := store.Count(ctx, accountstore.Filter{Roles: []string{models.RoleStudent}, Semester: 5})
	if sem5 != 2 {
		t.Errorf("semester 5 count: got %d", sem5)
	}

	// regex metacharacters are matched literally
	found, _ := store.List(ctx, accountstore.Filter{Search: "(it)"})
	if len(found) != 1 || found[0].Email != "22it004@charusat.edu.in" {
		t.Errorf("search: got %v", found)
	}

	byEmail, _ := store.List(ctx, accountstore.Filter{Search: "NAIR@"})
	if len(byEmail) != 1 {
		t.Errorf("case-insensitive email search: got %d", len(byEmail))
	}

	nonStudents, _ := store.Count(ctx, accountstore.Filter{ExcludeRoles: []string{models.RoleStudent}})
	if nonStudents != 1 {
		t.Errorf("exclude roles: got %d", nonStudents)
	}

	ids, err := store.IDs(ctx, accountstore.Filter{Department: "IT"})
	if err != nil || len(ids) != 1 {
		t.Errorf("IDs: got %v, %v", ids, err)
	}
}

func TestStore_TouchLastLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateAdmin(ctx, "Root", "root@charusat.ac.in")
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	if err := store.TouchLastLogin(ctx, a.ID, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Errorf("last login: got %v", got.LastLogin)
	}
}

func TestStore_PruneKeepsOldestAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := fx.CreateAccount(ctx, models.Account{
		Email: "first@charusat.ac.in", Role: models.RoleAdmin,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	})
	fx.CreateAdmin(ctx, "Second", "second@charusat.ac.in")
	fx.CreateStudent(ctx, "S", "22ce001@charusat.edu.in", "CE", 5)

	oldest, err := store.OldestAdmin(ctx)
	if err != nil || oldest.ID != first.ID {
		t.Fatalf("OldestAdmin: got %v, %v", oldest, err)
	}

	n, err := store.PruneExcept(ctx, oldest.ID)
	if err != nil || n != 2 {
		t.Fatalf("PruneExcept: got %d, %v", n, err)
	}
	left, _ := store.Count(ctx, accountstore.Filter{})
	if left != 1 {
		t.Errorf("expected 1 account left, got %d", left)
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.EnsureAdmin(ctx, "Admin@charusat.ac.in", "hash")
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin: %v, %v", created, err)
	}
	created, err = store.EnsureAdmin(ctx, "admin@charusat.ac.in", "other")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin: %v, %v", created, err)
	}
	a, _ := store.GetByEmail(ctx, "admin@charusat.ac.in")
	if a.Role != models.RoleAdmin || !a.IsActive || a.PasswordHash != "hash" {
		t.Errorf("unexpected admin: %+v", a)
	}
}

func TestStore_SetCounselor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fx.CreateStudent(ctx, "Asha", "22cse001@charusat.edu.in", "CSE", 5)
	f := fx.CreateStaff(ctx, "Dr. Mehta", "mehta@charusat.ac.in", models.RoleFaculty, "CSE")

	got, err := store.SetCounselor(ctx, s.ID, f.ID)
	if err != nil {
		t.Fatalf("SetCounselor: %v", err)
	}
	if got.Counselor == nil || *got.Counselor != f.ID {
		t.Errorf("counselor: got %v", got.Counselor)
	}

	if _, err := store.SetCounselor(ctx, f.ID, f.ID); !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("non-student: expected ErrNotFound, got %v", err)
	}
}
