package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weekdays are the accepted timetable days, in week order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayIndex returns the position of day in Weekdays, or -1.
func DayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// TimetableEntry is one lecture slot. Day, StartTime and SubjectCode
// together identify a slot; importing the same slot again updates it.
type TimetableEntry struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Day         string              `bson:"day" json:"day"`
	StartTime   string              `bson:"start_time" json:"startTime"`
	EndTime     string              `bson:"end_time" json:"endTime"`
	SubjectCode string              `bson:"subject_code" json:"subjectCode"`
	SubjectName string              `bson:"subject_name,omitempty" json:"subjectName,omitempty"`
	FacultyID   *primitive.ObjectID `bson:"faculty_id,omitempty" json:"facultyId,omitempty"`
	Room        string              `bson:"room,omitempty" json:"room,omitempty"`
	Department  string              `bson:"department,omitempty" json:"department,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
