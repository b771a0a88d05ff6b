// internal/app/store/assignments/assignmentstore.go
package assignmentstore

import (
	"context"
	"time"

	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assignments")}
}

// Create inserts a published, active assignment.
func (s *Store) Create(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.DueDate = a.DueDate.UTC()
	if a.Status == "" {
		a.Status = models.AssignmentPublished
	}
	a.IsActive = true
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// Filter selects assignments. Zero fields are ignored. SubjectIn with a
// non-nil empty slice matches nothing.
type Filter struct {
	Subject   primitive.ObjectID
	Faculty   primitive.ObjectID
	SubjectIn []primitive.ObjectID
}

func (f Filter) bson() bson.M {
	q := bson.M{"is_active": true}
	subject := bson.M{}
	if !f.Subject.IsZero() {
		subject["$eq"] = f.Subject
	}
	if f.SubjectIn != nil {
		subject["$in"] = f.SubjectIn
	}
	if len(subject) > 0 {
		q["subject"] = subject
	}
	if !f.Faculty.IsZero() {
		q["faculty"] = f.Faculty
	}
	return q
}

// List returns matching assignments newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Assignment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
