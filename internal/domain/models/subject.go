package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject is a course offered by a department in one semester. Code is
// stored uppercased and is unique.
type Subject struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Code        string              `bson:"code" json:"code"`
	Name        string              `bson:"name" json:"name"`
	Department  string              `bson:"department" json:"department"`
	Semester    int                 `bson:"semester" json:"semester"`
	Credits     int                 `bson:"credits" json:"credits"`
	Faculty     *primitive.ObjectID `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Syllabus    string              `bson:"syllabus,omitempty" json:"syllabus,omitempty"`
	IsActive    bool                `bson:"is_active" json:"isActive"`

	FacultyInfo *PersonRef `bson:"-" json:"facultyInfo,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
