package metricsstore

import (
	"context"

	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on dashboards. A department-scoped
// fetch leaves HODs and PendingRegistrations at zero.
type Counts struct {
	Students             int64 `json:"students"`
	Faculty              int64 `json:"faculty"`
	HODs                 int64 `json:"hods"`
	Groups               int64 `json:"groups"`
	PendingRegistrations int64 `json:"pendingRegistrations"`
}

func count(ctx context.Context, c *mongo.Collection, filter bson.M) int64 {
	n, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return 0
	}
	return n
}

// FetchDashboardCounts returns portal-wide totals.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	accounts := db.Collection("accounts")
	return Counts{
		Students:             count(ctx, accounts, bson.M{"role": models.RoleStudent}),
		Faculty:              count(ctx, accounts, bson.M{"role": models.RoleFaculty}),
		HODs:                 count(ctx, accounts, bson.M{"role": models.RoleHOD}),
		Groups:               count(ctx, db.Collection("project_groups"), bson.M{}),
		PendingRegistrations: count(ctx, accounts, bson.M{"approval_status": models.ApprovalPending}),
	}
}

// FetchDepartmentCounts returns the totals for one department. Faculty
// counts both faculty and hod accounts.
func FetchDepartmentCounts(ctx context.Context, db *mongo.Database, dept string) Counts {
	accounts := db.Collection("accounts")
	return Counts{
		Students: count(ctx, accounts, bson.M{"role": models.RoleStudent, "department": dept}),
		Faculty: count(ctx, accounts, bson.M{
			"role":       bson.M{"$in": bson.A{models.RoleFaculty, models.RoleHOD}},
			"department": dept,
		}),
		Groups: count(ctx, db.Collection("project_groups"), bson.M{"department": dept}),
	}
}

// CountMemberGroups returns how many groups list id as a member.
func CountMemberGroups(ctx context.Context, db *mongo.Database, id primitive.ObjectID) int64 {
	return count(ctx, db.Collection("project_groups"), bson.M{"members.student": id})
}

// CountGuidedGroups returns how many groups have id as internal guide.
func CountGuidedGroups(ctx context.Context, db *mongo.Database, id primitive.ObjectID) int64 {
	return count(ctx, db.Collection("project_groups"), bson.M{"internal_guide": id})
}
