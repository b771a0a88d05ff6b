// internal/app/store/subjects/subjectstore.go
package subjectstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studentportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("subject not found")
	ErrDuplicateCode = errors.New("subject code already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subjects")}
}

// Create inserts an active subject. The code is uppercased.
func (s *Store) Create(ctx context.Context, sub models.Subject) (models.Subject, error) {
	now := time.Now().UTC()
	sub.ID = primitive.NewObjectID()
	sub.Code = strings.ToUpper(strings.TrimSpace(sub.Code))
	sub.IsActive = true
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Subject{}, ErrDuplicateCode
		}
		return models.Subject{}, err
	}
	return sub, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subject, error) {
	var sub models.Subject
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// FindByIDs returns the subjects among ids that exist.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// Filter selects subjects. Zero fields are ignored; inactive subjects are
// never listed.
type Filter struct {
	Department string
	Semester   int
	Faculty    primitive.ObjectID
}

func (f Filter) bson() bson.M {
	q := bson.M{"is_active": true}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.Semester > 0 {
		q["semester"] = f.Semester
	}
	if !f.Faculty.IsZero() {
		q["faculty"] = f.Faculty
	}
	return q
}

// List returns matching subjects ordered by code.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Subject, error) {
	out, err := s.find(ctx, f.bson(), options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Subject{}
	}
	return out, nil
}

// IDs returns the ids of matching subjects.
func (s *Store) IDs(ctx context.Context, f Filter) ([]primitive.ObjectID, error) {
	subs, err := s.find(ctx, f.bson(), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Subject, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Subject
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
