// internal/domain/models/projectgroup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group member roles.
const (
	MemberRoleLeader = "leader"
	MemberRoleMember = "member"
)

// Group statuses. Only submitted -> approved|rejected is driven today;
// draft and under-review are reserved.
const (
	GroupStatusDraft       = "draft"
	GroupStatusSubmitted   = "submitted"
	GroupStatusUnderReview = "under-review"
	GroupStatusApproved    = "approved"
	GroupStatusRejected    = "rejected"
)

// GroupMember is one entry of ProjectGroup.Members. Name and Email are
// filled from the account when groups are listed and are never stored.
type GroupMember struct {
	Student primitive.ObjectID `bson:"student" json:"student"`
	Role    string             `bson:"role" json:"role"`
	Name    string             `bson:"-" json:"name,omitempty"`
	Email   string             `bson:"-" json:"email,omitempty"`
}

// PersonRef is the display identity of a referenced account.
type PersonRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name,omitempty"`
	Email string             `json:"email"`
}

// ExternalGuide is an industry mentor outside the university.
type ExternalGuide struct {
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Organization string `bson:"organization,omitempty" json:"organization,omitempty"`
	Email        string `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// WeeklyReport is embedded in ProjectGroup. At most one exists per WeekStart.
type WeeklyReport struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	WeekStart       time.Time           `bson:"week_start" json:"weekStart"`
	WeekEnd         time.Time           `bson:"week_end" json:"weekEnd"`
	Summary         string              `bson:"summary" json:"summary"`
	Accomplishments string              `bson:"accomplishments,omitempty" json:"accomplishments,omitempty"`
	Blockers        string              `bson:"blockers,omitempty" json:"blockers,omitempty"`
	PlanNextWeek    string              `bson:"plan_next_week,omitempty" json:"planNextWeek,omitempty"`
	SubmittedBy     primitive.ObjectID  `bson:"submitted_by" json:"submittedBy"`
	SubmittedAt     time.Time           `bson:"submitted_at" json:"submittedAt"`
	Feedback        string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
}

// ProjectGroup is a student project team. The whole group, including its
// members and weekly reports, lives in one document.
//
// Revision is bumped on every write; writers replace conditionally on the
// revision they read.
type ProjectGroup struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	GroupID     string             `bson:"group_id" json:"groupId"`
	ChatRoomID  string             `bson:"chat_room_id" json:"chatRoomId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Domain      string             `bson:"domain,omitempty" json:"domain,omitempty"`
	Department  string             `bson:"department" json:"department"`
	Semester    int                `bson:"semester" json:"semester"`

	Members       []GroupMember       `bson:"members" json:"members"`
	Leader        primitive.ObjectID  `bson:"leader" json:"leader"`
	InternalGuide *primitive.ObjectID `bson:"internal_guide,omitempty" json:"internalGuide,omitempty"`
	ExternalGuide *ExternalGuide      `bson:"external_guide,omitempty" json:"externalGuide,omitempty"`

	// Filled on listing, never stored.
	LeaderInfo        *PersonRef `bson:"-" json:"leaderInfo,omitempty"`
	InternalGuideInfo *PersonRef `bson:"-" json:"internalGuideInfo,omitempty"`

	HODApproval   bool           `bson:"hod_approval" json:"hodApproval"`
	Status        string         `bson:"status" json:"status"`
	WeeklyReports []WeeklyReport `bson:"weekly_reports" json:"weeklyReports"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`
	Revision  int64              `bson:"revision" json:"revision"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// HasMember reports whether id appears in Members.
func (g *ProjectGroup) HasMember(id primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m.Student == id {
			return true
		}
	}
	return false
}

// MemberIDs returns the member account ids in order.
func (g *ProjectGroup) MemberIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.Student)
	}
	return ids
}

// IsInternalGuide reports whether id is the assigned internal guide.
func (g *ProjectGroup) IsInternalGuide(id primitive.ObjectID) bool {
	return g.InternalGuide != nil && *g.InternalGuide == id
}

// ReportIndex returns the index of the report with the given id, or -1.
func (g *ProjectGroup) ReportIndex(id primitive.ObjectID) int {
	for i := range g.WeeklyReports {
		if g.WeeklyReports[i].ID == id {
			return i
		}
	}
	return -1
}

// HasReportForWeek reports whether a report already starts at weekStart.
func (g *ProjectGroup) HasReportForWeek(weekStart time.Time) bool {
	for i := range g.WeeklyReports {
		if g.WeeklyReports[i].WeekStart.Equal(weekStart) {
			return true
		}
	}
	return false
}
