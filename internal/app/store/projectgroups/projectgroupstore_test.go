package projectgroupstore_test

import (
	"errors"
	"testing"

	projectgroupstore "github.com/dalemusser/studentportal/internal/app/store/projectgroups"
	"github.com/dalemusser/studentportal/internal/app/system/indexes"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/dalemusser/studentportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newGroup(leader primitive.ObjectID, groupID string) models.ProjectGroup {
	return models.ProjectGroup{
		GroupID:    groupID,
		ChatRoomID: "grp_" + groupID,
		Title:      "Smart Attendance",
		Department: "CE",
		Semester:   5,
		Members:    []models.GroupMember{{Student: leader, Role: models.MemberRoleLeader}},
		Leader:     leader,
		Status:     models.GroupStatusSubmitted,
		CreatedBy:  leader,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectgroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	leader := primitive.NewObjectID()
	created, err := store.Create(ctx, newGroup(leader, "CE-S5-25-K3Z9"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Revision != 1 || created.ID.IsZero() || created.WeeklyReports == nil {
		t.Errorf("unexpected created group: %+v", created)
	}

	byHex, err := store.Get(ctx, created.ID.Hex())
	if err != nil || byHex.GroupID != "CE-S5-25-K3Z9" {
		t.Errorf("Get by hex: %v, %v", byHex, err)
	}
	byGroupID, err := store.Get(ctx, "ce-s5-25-k3z9")
	if err != nil || byGroupID.ID != created.ID {
		t.Errorf("Get by group id: %v, %v", byGroupID, err)
	}
	if _, err := store.Get(ctx, "CE-S5-25-NONE"); !errors.Is(err, projectgroupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := store.Create(ctx, newGroup(leader, "CE-S5-25-K3Z9")); !errors.Is(err, projectgroupstore.ErrDuplicateGroupID) {
		t.Errorf("expected ErrDuplicateGroupID, got %v", err)
	}
}

func TestStore_SaveDetectsStaleRevision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectgroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newGroup(primitive.NewObjectID(), "CE-S5-25-AAAA"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, _ := store.GetByID(ctx, created.ID)
	second, _ := store.GetByID(ctx, created.ID)

	first.Title = "First writer"
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if first.Revision != 2 {
		t.Errorf("revision after save: got %d", first.Revision)
	}

	second.Title = "Second writer"
	if err := store.Save(ctx, second); !errors.Is(err, projectgroupstore.ErrStaleRevision) {
		t.Fatalf("expected ErrStaleRevision, got %v", err)
	}

	got, _ := store.GetByID(ctx, created.ID)
	if got.Title != "First writer" || got.Revision != 2 {
		t.Errorf("stored group: %q rev %d", got.Title, got.Revision)
	}

	missing := newGroup(primitive.NewObjectID(), "X")
	missing.ID = primitive.NewObjectID()
	if err := store.Save(ctx, &missing); !errors.Is(err, projectgroupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectgroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	guide := primitive.NewObjectID()

	g1 := newGroup(a, "CE-S5-25-0001")
	g1.InternalGuide = &guide
	if _, err := store.Create(ctx, g1); err != nil {
		t.Fatal(err)
	}
	g2 := newGroup(b, "IT-S5-25-0002")
	g2.Department = "IT"
	if _, err := store.Create(ctx, g2); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx, projectgroupstore.ListFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("List all: %d, %v", len(all), err)
	}
	if all[0].GroupID != "IT-S5-25-0002" {
		t.Errorf("expected newest first, got %s", all[0].GroupID)
	}

	mine, _ := store.List(ctx, projectgroupstore.ListFilter{MemberID: a})
	if len(mine) != 1 || mine[0].GroupID != "CE-S5-25-0001" {
		t.Errorf("member filter: %v", mine)
	}

	guided, _ := store.Count(ctx, projectgroupstore.ListFilter{InternalGuide: guide})
	if guided != 1 {
		t.Errorf("guide filter: %d", guided)
	}

	it, _ := store.Count(ctx, projectgroupstore.ListFilter{Department: "IT"})
	if it != 1 {
		t.Errorf("department filter: %d", it)
	}

	none, _ := store.List(ctx, projectgroupstore.ListFilter{AnyMemberIn: []primitive.ObjectID{}})
	if len(none) != 0 {
		t.Errorf("empty AnyMemberIn should match nothing, got %d", len(none))
	}
	some, _ := store.List(ctx, projectgroupstore.ListFilter{AnyMemberIn: []primitive.ObjectID{b}})
	if len(some) != 1 {
		t.Errorf("AnyMemberIn: got %d", len(some))
	}
}

func TestStore_DeleteAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectgroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, id := range []string{"CE-S5-25-DEL1", "CE-S5-25-DEL2"} {
		if _, err := store.Create(ctx, newGroup(primitive.NewObjectID(), id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	n, err := store.DeleteAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAll: got %d, %v", n, err)
	}
	left, err := store.Count(ctx, projectgroupstore.ListFilter{})
	if err != nil || left != 0 {
		t.Errorf("expected empty collection, got %d, %v", left, err)
	}
}
