// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/studentportal/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("accounts", accountsSchema())
	ensure("project_groups", projectGroupsSchema())
	ensure("subjects", subjectsSchema())
	ensure("timetable", timetableSchema())
	ensure("assignments", assignmentsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// IsDocumentValidation reports whether err is a write rejected by a
// collection validator (DocumentValidationFailure, code 121).
func IsDocumentValidation(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 121 {
				return true
			}
		}
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(121) {
		return true
	}
	return strings.Contains(err.Error(), "Document failed validation")
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enumOf(values []string) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	integer  = bson.A{"int", "long"}
)

func accountsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "password_hash", "role", "approval_status", "created_at"},
			"properties": bson.M{
				"email":           nonBlank,
				"password_hash":   nonBlank,
				"role":            bson.M{"enum": bson.A{models.RoleStudent, models.RoleFaculty, models.RoleHOD, models.RoleAdmin}},
				"department":      bson.M{"enum": enumOf(models.Departments)},
				"admission_year":  bson.M{"bsonType": integer},
				"semester":        bson.M{"bsonType": integer, "minimum": 1, "maximum": 8},
				"section":         bson.M{"enum": enumOf(models.Sections)},
				"interests":       bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"counselor":       bson.M{"bsonType": "objectId"},
				"is_onboarded":    bson.M{"bsonType": "bool"},
				"is_approved":     bson.M{"bsonType": "bool"},
				"is_active":       bson.M{"bsonType": "bool"},
				"approval_status": bson.M{"enum": bson.A{models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected}},
				"last_login":      bson.M{"bsonType": "date"},
				"created_at":      bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func projectGroupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "title", "department", "semester", "members", "leader", "status", "revision"},
			"properties": bson.M{
				"group_id":     nonBlank,
				"chat_room_id": bson.M{"bsonType": "string"},
				"title":        nonBlank,
				"department":   bson.M{"enum": enumOf(models.Departments)},
				"semester":     bson.M{"bsonType": integer, "minimum": 1, "maximum": 8},
				"members": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"student", "role"},
						"properties": bson.M{
							"student": bson.M{"bsonType": "objectId"},
							"role":    bson.M{"enum": bson.A{models.MemberRoleLeader, models.MemberRoleMember}},
						},
					},
				},
				"leader":         bson.M{"bsonType": "objectId"},
				"internal_guide": bson.M{"bsonType": "objectId"},
				"hod_approval":   bson.M{"bsonType": "bool"},
				"status": bson.M{"enum": bson.A{
					models.GroupStatusDraft, models.GroupStatusSubmitted, models.GroupStatusUnderReview,
					models.GroupStatusApproved, models.GroupStatusRejected,
				}},
				"weekly_reports": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"week_start", "summary", "submitted_by"},
						"properties": bson.M{
							"week_start":   bson.M{"bsonType": "date"},
							"week_end":     bson.M{"bsonType": "date"},
							"summary":      nonBlank,
							"submitted_by": bson.M{"bsonType": "objectId"},
						},
					},
				},
				"revision":   bson.M{"bsonType": integer, "minimum": 1},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func subjectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"code", "name", "department", "semester", "credits"},
			"properties": bson.M{
				"code":       nonBlank,
				"name":       nonBlank,
				"department": bson.M{"enum": enumOf(models.Departments)},
				"semester":   bson.M{"bsonType": integer, "minimum": 1, "maximum": 8},
				"credits":    bson.M{"bsonType": integer, "minimum": 1, "maximum": 6},
				"faculty":    bson.M{"bsonType": "objectId"},
				"is_active":  bson.M{"bsonType": "bool"},
			},
		},
	}
}

func timetableSchema() bson.M {
	hhmm := bson.M{"bsonType": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"day", "start_time", "end_time", "subject_code"},
			"properties": bson.M{
				"day":          bson.M{"enum": enumOf(models.Weekdays)},
				"start_time":   hhmm,
				"end_time":     hhmm,
				"subject_code": nonBlank,
				"faculty_id":   bson.M{"bsonType": "objectId"},
				"department":   bson.M{"enum": enumOf(models.Departments)},
			},
		},
	}
}

func assignmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "description", "subject", "faculty", "due_date", "max_marks"},
			"properties": bson.M{
				"title":       nonBlank,
				"description": nonBlank,
				"subject":     bson.M{"bsonType": "objectId"},
				"faculty":     bson.M{"bsonType": "objectId"},
				"due_date":    bson.M{"bsonType": "date"},
				"max_marks":   bson.M{"bsonType": integer, "minimum": 1},
				"status": bson.M{"enum": bson.A{
					models.AssignmentDraft, models.AssignmentPublished, models.AssignmentClosed,
				}},
			},
		},
	}
}
