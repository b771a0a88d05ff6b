// internal/app/store/projectgroups/projectgroupstore.go
package projectgroupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("project group not found")
	// ErrStaleRevision means the group changed since it was read.
	ErrStaleRevision = errors.New("project group was modified concurrently")
	// ErrDuplicateGroupID means the generated group id is taken; callers retry with a new one.
	ErrDuplicateGroupID = errors.New("group id already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_groups")}
}

// Create inserts g with revision 1. GroupID must already be set.
func (s *Store) Create(ctx context.Context, g models.ProjectGroup) (models.ProjectGroup, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Revision = 1
	if g.WeeklyReports == nil {
		g.WeeklyReports = []models.WeeklyReport{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ProjectGroup{}, ErrDuplicateGroupID
		}
		return models.ProjectGroup{}, err
	}
	return g, nil
}

// Get resolves ref as a hex ObjectID first and then as a group id.
func (s *Store) Get(ctx context.Context, ref string) (*models.ProjectGroup, error) {
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		g, err := s.GetByID(ctx, oid)
		if !errors.Is(err, ErrNotFound) {
			return g, err
		}
	}
	return s.GetByGroupID(ctx, ref)
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ProjectGroup, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByGroupID looks up by the human-readable id, case-insensitively.
func (s *Store) GetByGroupID(ctx context.Context, groupID string) (*models.ProjectGroup, error) {
	return s.findOne(ctx, bson.M{"group_id": normalize.GroupID(groupID)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.ProjectGroup, error) {
	var g models.ProjectGroup
	if err := s.c.FindOne(ctx, filter).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Save replaces the stored group with g if its revision still equals
// g.Revision, then bumps the revision. On success g carries the new
// revision and timestamp.
func (s *Store) Save(ctx context.Context, g *models.ProjectGroup) error {
	read := g.Revision
	next := *g
	next.Revision = read + 1
	next.UpdatedAt = time.Now().UTC()

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": g.ID, "revision": read}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": g.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrStaleRevision
	}
	*g = next
	return nil
}

// ListFilter selects groups. Zero fields are ignored; AnyMemberIn with a
// non-nil empty slice matches nothing.
type ListFilter struct {
	MemberID      primitive.ObjectID
	InternalGuide primitive.ObjectID
	Department    string
	AnyMemberIn   []primitive.ObjectID
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	if !f.MemberID.IsZero() {
		q["members.student"] = f.MemberID
	}
	if !f.InternalGuide.IsZero() {
		q["internal_guide"] = f.InternalGuide
	}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.AnyMemberIn != nil {
		if f.MemberID.IsZero() {
			q["members.student"] = bson.M{"$in": f.AnyMemberIn}
		} else {
			q["$and"] = bson.A{bson.M{"members.student": bson.M{"$in": f.AnyMemberIn}}}
		}
	}
	return q
}

// List returns matching groups newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.ProjectGroup, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ProjectGroup{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of matching groups.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// DeleteAll removes every group. Used by the maintenance CLI.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
