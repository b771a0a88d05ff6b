// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureAccounts(ctx, db); err != nil {
		problems = append(problems, "accounts: "+err.Error())
	}
	if err := ensureProjectGroups(ctx, db); err != nil {
		problems = append(problems, "project_groups: "+err.Error())
	}
	if err := ensureSubjects(ctx, db); err != nil {
		problems = append(problems, "subjects: "+err.Error())
	}
	if err := ensureTimetable(ctx, db); err != nil {
		problems = append(problems, "timetable: "+err.Error())
	}
	if err := ensureAssignments(ctx, db); err != nil {
		problems = append(problems, "assignments: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// duplicateFinders are shell snippets logged when a unique index cannot be
// built because existing documents collide.
var duplicateFinders = map[string]string{
	"accounts/email:1": `db.accounts.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
	"project_groups/group_id:1": `db.project_groups.aggregate([{ $group: { _id: "$group_id", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
	"subjects/code:1": `db.subjects.aggregate([{ $group: { _id: "$code", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
	"timetable/day:1, start_time:1, subject_code:1": `db.timetable.aggregate([{ $group: { _id: { d: "$day", s: "$start_time", c: "$subject_code" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// createFailure formats a CreateOne error, pointing at the colliding
// documents when a unique build failed on duplicates.
func createFailure(coll *mongo.Collection, name, sig string, unique bool, err error) string {
	if isDuplicateKeyErr(err) && unique {
		msg := fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
		if finder, ok := duplicateFinders[coll.Name()+"/"+sig]; ok {
			msg += "; find them with:\n" + finder
		}
		return msg
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

// replace drops ex and creates m in its place.
func replace(ctx context.Context, coll *mongo.Collection, ex existingIndex, m mongo.IndexModel, name, sig string, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		zap.L().Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", ex.Name),
			zap.String("keys", sig),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return errors.New(createFailure(coll, name, sig, unique, err))
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		unique := desiredUnique != nil && *desiredUnique
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique))
		log.Info("ensuring index")

		if ex, ok := listExisting(ctx, coll)[desiredSig]; ok {
			switch {
			case sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName):
				log.Info("reusing existing index", zap.String("took", time.Since(start).String()))
			case sameBoolPtr(desiredUnique, ex.Unique):
				log.Info("renaming index to align with desired name", zap.String("from", ex.Name))
				if err := replace(ctx, coll, ex, m, desiredName, desiredSig, unique); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				log.Info("index renamed", zap.String("took", time.Since(start).String()))
			default:
				// options changed (e.g. now unique)
				if err := replace(ctx, coll, ex, m, desiredName, desiredSig, unique); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				log.Info("index dropped and recreated", zap.String("took", time.Since(start).String()))
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			log.Info("index ensured",
				zap.String("created_name", created),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if isOptionsConflictErr(err) {
			if match, ok := listExisting(ctx, coll)[desiredSig]; ok {
				if sameBoolPtr(desiredUnique, match.Unique) {
					log.Info("reusing existing index (post-conflict)", zap.String("existing", match.Name))
					continue
				}
				if rerr := replace(ctx, coll, match, m, desiredName, desiredSig, unique); rerr != nil {
					errs = append(errs, rerr.Error())
					continue
				}
				log.Info("index dropped and recreated (post-conflict)", zap.String("took", time.Since(start).String()))
				continue
			}
		}

		log.Warn("index ensure failed", zap.String("took", time.Since(start).String()), zap.Error(err))
		errs = append(errs, createFailure(coll, desiredName, desiredSig, unique, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureAccounts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("accounts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login and must be unique across all roles.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_accounts_email"),
		},
		// Directory listings: role + department, sorted by folded name.
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "department", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_accounts_role_dept_nameci_id"),
		},
		// Pending registrations queue.
		{
			Keys:    bson.D{{Key: "approval_status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_accounts_approval_created"),
		},
		// "my counselees"
		{
			Keys:    bson.D{{Key: "counselor", Value: 1}},
			Options: options.Index().SetName("idx_accounts_counselor").SetSparse(true),
		},
	})
}

func ensureProjectGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("project_groups")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_project_groups_groupid"),
		},
		// "my groups" for students
		{
			Keys:    bson.D{{Key: "members.student", Value: 1}},
			Options: options.Index().SetName("idx_project_groups_members_student"),
		},
		// hod/admin department lists, newest first
		{
			Keys:    bson.D{{Key: "department", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_project_groups_dept_created"),
		},
		// faculty "groups I guide"
		{
			Keys:    bson.D{{Key: "internal_guide", Value: 1}},
			Options: options.Index().SetName("idx_project_groups_internal_guide"),
		},
	})
}

func ensureSubjects(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("subjects")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_subjects_code"),
		},
		// student view: department + semester, ordered by code
		{
			Keys:    bson.D{{Key: "department", Value: 1}, {Key: "semester", Value: 1}, {Key: "code", Value: 1}},
			Options: options.Index().SetName("idx_subjects_dept_sem_code"),
		},
		{
			Keys:    bson.D{{Key: "faculty", Value: 1}},
			Options: options.Index().SetName("idx_subjects_faculty"),
		},
	})
}

func ensureTimetable(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("timetable")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// import upsert key
		{
			Keys: bson.D{
				{Key: "day", Value: 1},
				{Key: "start_time", Value: 1},
				{Key: "subject_code", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_timetable_day_start_subject"),
		},
		{
			Keys:    bson.D{{Key: "department", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetName("idx_timetable_dept_day"),
		},
	})
}

func ensureAssignments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("assignments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "faculty", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_assignments_faculty_created"),
		},
		{
			Keys:    bson.D{{Key: "subject", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_assignments_subject_created"),
		},
	})
}
