package validators_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/validators"
	"github.com/dalemusser/studentportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ensuredDB struct {
	db  *mongo.Database
	ctx context.Context
}

func ensured(t *testing.T) (*ensuredDB, context.CancelFunc) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	if err := validators.EnsureAll(ctx, db); err != nil {
		cancel()
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return &ensuredDB{db: db, ctx: ctx}, cancel
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"accounts", "project_groups", "subjects", "timetable", "assignments"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestAccountsValidator(t *testing.T) {
	tdb, cancel := ensured(t)
	defer cancel()
	coll := tdb.db.Collection("accounts")
	now := time.Now()

	valid := bson.M{
		"email":           "22ce001@charusat.edu.in",
		"password_hash":   "$2a$10$abcdefghijklmnopqrstuv",
		"role":            "student",
		"approval_status": "approved",
		"created_at":      now,
	}
	if _, err := coll.InsertOne(tdb.ctx, valid); err != nil {
		t.Fatalf("insert valid account: %v", err)
	}

	tests := []struct {
		name string
		doc  bson.M
	}{
		{"missing email", bson.M{"password_hash": "x", "role": "student", "approval_status": "approved", "created_at": now}},
		{"invalid role", bson.M{"email": "a@b.c", "password_hash": "x", "role": "dean", "approval_status": "approved", "created_at": now}},
		{"invalid department", bson.M{"email": "a@b.c", "password_hash": "x", "role": "student", "department": "XYZ", "approval_status": "approved", "created_at": now}},
		{"semester out of range", bson.M{"email": "a@b.c", "password_hash": "x", "role": "student", "semester": 9, "approval_status": "approved", "created_at": now}},
		{"invalid approval", bson.M{"email": "a@b.c", "password_hash": "x", "role": "student", "approval_status": "maybe", "created_at": now}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.InsertOne(tdb.ctx, tt.doc)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !validators.IsDocumentValidation(err) {
				t.Errorf("IsDocumentValidation(%v) = false", err)
			}
		})
	}
}

func TestProjectGroupsValidator(t *testing.T) {
	tdb, cancel := ensured(t)
	defer cancel()
	coll := tdb.db.Collection("project_groups")
	leader := primitive.NewObjectID()

	doc := func() bson.M {
		return bson.M{
			"group_id":   "CSE-S5-25-AB12",
			"title":      "Campus Navigator",
			"department": "CSE",
			"semester":   5,
			"members":    bson.A{bson.M{"student": leader, "role": "leader"}},
			"leader":     leader,
			"status":     "submitted",
			"revision":   int64(1),
		}
	}

	if _, err := coll.InsertOne(tdb.ctx, doc()); err != nil {
		t.Fatalf("insert valid group: %v", err)
	}

	bad := doc()
	bad["group_id"] = "CSE-S5-25-ZZ99"
	bad["members"] = bson.A{}
	if _, err := coll.InsertOne(tdb.ctx, bad); err == nil {
		t.Error("expected validation error for empty members")
	}

	bad = doc()
	bad["group_id"] = "CSE-S5-25-ZZ98"
	bad["status"] = "archived"
	if _, err := coll.InsertOne(tdb.ctx, bad); err == nil {
		t.Error("expected validation error for unknown status")
	}

	bad = doc()
	bad["group_id"] = "CSE-S5-25-ZZ97"
	bad["members"] = bson.A{bson.M{"student": leader, "role": "owner"}}
	if _, err := coll.InsertOne(tdb.ctx, bad); err == nil {
		t.Error("expected validation error for unknown member role")
	}
}

func TestCatalogValidators(t *testing.T) {
	tdb, cancel := ensured(t)
	defer cancel()
	now := time.Now()

	tests := []struct {
		name  string
		coll  string
		doc   bson.M
		valid bool
	}{
		{"subject", "subjects", bson.M{"code": "CS301", "name": "DS", "department": "CSE", "semester": 3, "credits": 4}, true},
		{"subject credits too high", "subjects", bson.M{"code": "CS302", "name": "DB", "department": "CSE", "semester": 3, "credits": 9}, false},
		{"subject unknown department", "subjects", bson.M{"code": "CS303", "name": "OS", "department": "LAW", "semester": 3, "credits": 4}, false},
		{"timetable slot", "timetable", bson.M{"day": "monday", "start_time": "09:00", "end_time": "10:00", "subject_code": "CS301"}, true},
		{"timetable bad day", "timetable", bson.M{"day": "funday", "start_time": "09:00", "end_time": "10:00", "subject_code": "CS301"}, false},
		{"timetable bad time", "timetable", bson.M{"day": "monday", "start_time": "9am", "end_time": "10:00", "subject_code": "CS301"}, false},
		{"assignment", "assignments", bson.M{
			"title": "Lists", "description": "Implement", "subject": primitive.NewObjectID(),
			"faculty": primitive.NewObjectID(), "due_date": now, "max_marks": 10, "status": "published",
		}, true},
		{"assignment zero marks", "assignments", bson.M{
			"title": "Lists", "description": "Implement", "subject": primitive.NewObjectID(),
			"faculty": primitive.NewObjectID(), "due_date": now, "max_marks": 0,
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tdb.db.Collection(tt.coll).InsertOne(tdb.ctx, tt.doc)
			if tt.valid && err != nil {
				t.Fatalf("expected insert to succeed: %v", err)
			}
			if !tt.valid && !validators.IsDocumentValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestIsDocumentValidation(t *testing.T) {
	if validators.IsDocumentValidation(nil) {
		t.Error("nil is not a validation error")
	}
	if validators.IsDocumentValidation(errors.New("boom")) {
		t.Error("plain error is not a validation error")
	}
	if !validators.IsDocumentValidation(errors.New("write exception: Document failed validation")) {
		t.Error("message fallback should match")
	}
}
