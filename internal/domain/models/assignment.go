package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment statuses. New assignments are published immediately.
const (
	AssignmentDraft     = "draft"
	AssignmentPublished = "published"
	AssignmentClosed    = "closed"
)

// Assignment is coursework set by a faculty member for one subject.
type Assignment struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Subject     primitive.ObjectID `bson:"subject" json:"subject"`
	Faculty     primitive.ObjectID `bson:"faculty" json:"faculty"`
	DueDate     time.Time          `bson:"due_date" json:"dueDate"`
	MaxMarks    int                `bson:"max_marks" json:"maxMarks"`
	Status      string             `bson:"status" json:"status"`
	IsActive    bool               `bson:"is_active" json:"isActive"`

	SubjectInfo *SubjectRef `bson:"-" json:"subjectInfo,omitempty"`
	FacultyInfo *PersonRef  `bson:"-" json:"facultyInfo,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// SubjectRef is the code and name of a referenced subject.
type SubjectRef struct {
	ID   primitive.ObjectID `json:"id"`
	Code string             `json:"code"`
	Name string             `json:"name"`
}
