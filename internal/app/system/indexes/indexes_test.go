package indexes_test

import (
	"testing"

	"github.com/dalemusser/studentportal/internal/app/system/indexes"
	"github.com/dalemusser/studentportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, coll *mongo.Collection) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"accounts": {
			"uniq_accounts_email",
			"idx_accounts_role_dept_nameci_id",
			"idx_accounts_approval_created",
			"idx_accounts_counselor",
		},
		"project_groups": {
			"uniq_project_groups_groupid",
			"idx_project_groups_members_student",
			"idx_project_groups_dept_created",
			"idx_project_groups_internal_guide",
		},
		"subjects": {
			"uniq_subjects_code",
			"idx_subjects_dept_sem_code",
			"idx_subjects_faculty",
		},
		"timetable": {
			"uniq_timetable_day_start_subject",
			"idx_timetable_dept_day",
		},
		"assignments": {
			"idx_assignments_faculty_created",
			"idx_assignments_subject_created",
		},
	}
	for coll, want := range expected {
		names := indexNames(t, db.Collection(coll))
		for _, n := range want {
			if !names[n] {
				t.Errorf("%s: expected index %q", coll, n)
			}
		}
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_1_legacy"),
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	names := indexNames(t, db.Collection("accounts"))
	if names["email_1_legacy"] || !names["uniq_accounts_email"] {
		t.Errorf("expected legacy index renamed, got %v", names)
	}
}

func TestEnsureAll_UniqueEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection("accounts")
	if _, err := coll.InsertOne(ctx, bson.M{"email": "dup@charusat.ac.in"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "dup@charusat.ac.in"}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}

func TestEnsureAll_UniqueTimetableSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection("timetable")
	slot := bson.M{"day": "monday", "start_time": "09:00", "subject_code": "CS301"}
	if _, err := coll.InsertOne(ctx, slot); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"day": "monday", "start_time": "09:00", "subject_code": "CS301"}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}
