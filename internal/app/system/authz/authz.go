// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/studentportal/internal/app/system/auth"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present or the session carries a malformed id it returns
// "visitor", "", NilObjectID, false.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Department returns the signed-in user's department code, if any.
func Department(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.Department
	}
	return ""
}

// HasAnyRole reports whether the signed-in user holds one of roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the signed-in user is an admin.
func IsAdmin(r *http.Request) bool { return HasAnyRole(r, models.RoleAdmin) }

// IsAdminOrHOD reports whether the signed-in user is an admin or head of department.
func IsAdminOrHOD(r *http.Request) bool { return HasAnyRole(r, models.RoleAdmin, models.RoleHOD) }
