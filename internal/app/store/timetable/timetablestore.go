// internal/app/store/timetable/timetablestore.go
package timetablestore

import (
	"context"
	"sort"
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
	return &Store{c: db.Collection("timetable")}
}

// Upsert writes e keyed by day, start time and subject code. Optional
// fields left empty are cleared on an existing slot.
func (s *Store) Upsert(ctx context.Context, e models.TimetableEntry) (models.TimetableEntry, error) {
	now := time.Now().UTC()
	key := bson.M{"day": e.Day, "start_time": e.StartTime, "subject_code": e.SubjectCode}

	set := bson.M{
		"day":          e.Day,
		"start_time":   e.StartTime,
		"end_time":     e.EndTime,
		"subject_code": e.SubjectCode,
		"updated_at":   now,
	}
	unset := bson.M{}
	optional := map[string]string{
		"subject_name": e.SubjectName,
		"room":         e.Room,
		"department":   e.Department,
	}
	for k, v := range optional {
		if v != "" {
			set[k] = v
		} else {
			unset[k] = ""
		}
	}
	if e.FacultyID != nil {
		set["faculty_id"] = *e.FacultyID
	} else {
		unset["faculty_id"] = ""
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out models.TimetableEntry
	err := s.c.FindOneAndUpdate(ctx, key, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.TimetableEntry{}, err
	}
	return out, nil
}

// Filter selects timetable entries. Zero fields are ignored.
type Filter struct {
	Day string
	// Department also matches entries with no department.
	Department string
	FacultyID  primitive.ObjectID
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	if f.Day != "" {
		q["day"] = f.Day
	}
	if f.Department != "" {
		q["department"] = bson.M{"$in": bson.A{f.Department, "", nil}}
	}
	if !f.FacultyID.IsZero() {
		q["faculty_id"] = f.FacultyID
	}
	return q
}

// List returns matching entries in week order, then by start time.
func (s *Store) List(ctx context.Context, f Filter) ([]models.TimetableEntry, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.TimetableEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return models.DayIndex(out[i].Day) < models.DayIndex(out[j].Day)
	})
	return out, nil
}
