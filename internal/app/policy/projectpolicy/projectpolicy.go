// internal/app/policy/projectpolicy/projectpolicy.go
package projectpolicy

import (
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/authz"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the caller of a project-group operation.
type Actor struct {
	ID         primitive.ObjectID
	Role       string
	Department string
}

// ActorFromRequest builds an Actor from the session. ok is false when
// nobody is signed in.
func ActorFromRequest(r *http.Request) (Actor, bool) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: uid, Role: role, Department: authz.Department(r)}, true
}

// IsAdminOrHOD reports whether a holds an approving role.
func (a Actor) IsAdminOrHOD() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleHOD
}

// CanManageMembers: the group's leader, an admin or a hod.
func CanManageMembers(a Actor, g *models.ProjectGroup) bool {
	return a.ID == g.Leader || a.IsAdminOrHOD()
}

// CanApprove: admin or hod.
func CanApprove(a Actor) bool { return a.IsAdminOrHOD() }

// CanAssignGuide: admin or hod.
func CanAssignGuide(a Actor) bool { return a.IsAdminOrHOD() }

// CanSubmitReport: only the group's leader.
func CanSubmitReport(a Actor, g *models.ProjectGroup) bool {
	return a.ID == g.Leader
}

// CanReviewReport: the assigned internal guide, an admin or a hod.
func CanReviewReport(a Actor, g *models.ProjectGroup) bool {
	return g.IsInternalGuide(a.ID) || a.IsAdminOrHOD()
}

// CanViewReports: members, the internal guide, hod and admin. Other faculty
// may read a group's reports only until a guide is assigned.
func CanViewReports(a Actor, g *models.ProjectGroup) bool {
	if g.HasMember(a.ID) || g.IsInternalGuide(a.ID) {
		return true
	}
	switch a.Role {
	case models.RoleAdmin, models.RoleHOD:
		return true
	case models.RoleFaculty:
		return g.InternalGuide == nil
	}
	return false
}
