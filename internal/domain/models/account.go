// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleHOD     = "hod"
	RoleAdmin   = "admin"
)

// Approval states. Only faculty and hod accounts start out pending.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Departments is the fixed set of department codes.
var Departments = []string{"CSE", "CE", "IT", "ME", "EC", "CH", "DIT"}

// Sections is the fixed set of class sections.
var Sections = []string{"A", "B", "C", "D"}

// Interests lists the selectable interest areas shown during onboarding.
var Interests = []string{
	"Web Development",
	"Mobile Development",
	"Machine Learning",
	"Data Science",
	"Cloud Computing",
	"Cyber Security",
	"Blockchain",
	"IoT",
	"Game Development",
	"UI/UX Design",
	"DevOps",
	"Embedded Systems",
}

// IsDepartment reports whether code is one of Departments.
func IsDepartment(code string) bool {
	for _, d := range Departments {
		if d == code {
			return true
		}
	}
	return false
}

// IsStaffRole reports whether role is faculty or hod.
func IsStaffRole(role string) bool {
	return role == RoleFaculty || role == RoleHOD
}

// Account is a portal login: students, faculty, heads of department and admins.
//
// Email is stored lowercased and is unique across all accounts.
// Student-only fields (roll number, semester, section) and staff-only fields
// (specialization, education) are required once IsOnboarded is true.
type Account struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`

	Department    string `bson:"department,omitempty" json:"department,omitempty"`
	AdmissionYear int    `bson:"admission_year,omitempty" json:"admissionYear,omitempty"`

	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	NameCI      string `bson:"name_ci,omitempty" json:"-"`
	PhoneNumber string `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`

	// student
	RollNumber string `bson:"roll_number,omitempty" json:"rollNumber,omitempty"`
	Semester   int    `bson:"semester,omitempty" json:"semester,omitempty"`
	Section    string `bson:"section,omitempty" json:"section,omitempty"`

	// faculty / hod
	Specialization string `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Education      string `bson:"education,omitempty" json:"education,omitempty"`
	Experience     string `bson:"experience,omitempty" json:"experience,omitempty"`

	// Counselor is the faculty or hod mentor assigned to a student.
	Counselor *primitive.ObjectID `bson:"counselor,omitempty" json:"counselor,omitempty"`

	Interests []string `bson:"interests,omitempty" json:"interests,omitempty"`
	Domain    string   `bson:"domain,omitempty" json:"domain,omitempty"`

	IsOnboarded    bool   `bson:"is_onboarded" json:"isOnboarded"`
	IsRegistered   bool   `bson:"is_registered" json:"isRegistered"`
	IsApproved     bool   `bson:"is_approved" json:"isApproved"`
	ApprovalStatus string `bson:"approval_status" json:"approvalStatus"`
	IsActive       bool   `bson:"is_active" json:"isActive"`

	LastLogin *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}
