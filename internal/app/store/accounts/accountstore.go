// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when an account with the email already exists.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("account not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Create inserts a new account. The id and timestamps are assigned here and
// the email is lowercased.
func (s *Store) Create(ctx context.Context, a models.Account) (models.Account, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Email = normalize.Email(a.Email)
	a.Name = normalize.Name(a.Name)
	if a.Name != "" {
		a.NameCI = text.Fold(a.Name)
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicateEmail
		}
		return models.Account{}, err
	}
	return a, nil
}

// GetByID loads an account by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// GetByEmail looks up an account by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindByIDs returns the accounts among ids that exist, in no particular order.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// FindByEmails returns the accounts among emails that exist. Emails are
// normalized before lookup.
func (s *Store) FindByEmails(ctx context.Context, emails []string) ([]models.Account, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	norm := make([]string, 0, len(emails))
	for _, e := range emails {
		norm = append(norm, normalize.Email(e))
	}
	return s.find(ctx, bson.M{"email": bson.M{"$in": norm}})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profile is the onboarding payload. Fields not relevant to the account's
// role are left empty.
type Profile struct {
	Name          string
	PhoneNumber   string
	Address       string
	Department    string
	AdmissionYear int

	RollNumber string
	Semester   int
	Section    string

	Specialization string
	Education      string
	Experience     string

	Interests []string
	Domain    string
}

// CompleteOnboarding stores p and marks the account onboarded. It returns
// the updated account.
func (s *Store) CompleteOnboarding(ctx context.Context, id primitive.ObjectID, p Profile) (*models.Account, error) {
	name := normalize.Name(p.Name)
	set := bson.M{
		"name":         name,
		"name_ci":      text.Fold(name),
		"phone_number": p.PhoneNumber,
		"address":      p.Address,
		"department":   p.Department,
		"is_onboarded": true,
		"updated_at":   time.Now().UTC(),
	}
	optional := map[string]any{
		"admission_year": p.AdmissionYear,
		"roll_number":    p.RollNumber,
		"semester":       p.Semester,
		"section":        p.Section,
		"specialization": p.Specialization,
		"education":      p.Education,
		"experience":     p.Experience,
		"domain":         p.Domain,
	}
	for k, v := range optional {
		switch x := v.(type) {
		case string:
			if x != "" {
				set[k] = x
			}
		case int:
			if x != 0 {
				set[k] = x
			}
		}
	}
	if len(p.Interests) > 0 {
		set["interests"] = p.Interests
	}

	var a models.Account
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// SetApproval approves or rejects a non-admin account. When approving, a
// non-empty role replaces the account's role.
func (s *Store) SetApproval(ctx context.Context, id primitive.ObjectID, approve bool, role string) (*models.Account, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if approve {
		set["is_approved"] = true
		set["is_active"] = true
		set["approval_status"] = models.ApprovalApproved
		if role != "" {
			set["role"] = role
		}
	} else {
		set["is_approved"] = false
		set["is_active"] = false
		set["approval_status"] = models.ApprovalRejected
	}

	var a models.Account
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": bson.M{"$ne": models.RoleAdmin}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login": at.UTC()}})
	return err
}

// SetCounselor records counselor as the mentor of the student account id.
// ErrNotFound is returned when id is not a student.
func (s *Store) SetCounselor(ctx context.Context, id, counselor primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": models.RoleStudent},
		bson.M{"$set": bson.M{"counselor": counselor, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// Filter selects accounts for List, Count and IDs. Zero fields are ignored.
type Filter struct {
	Roles          []string
	ExcludeRoles   []string
	Department     string
	Semester       int
	AdmissionYear  int
	ApprovalStatus string
	// Search matches name, email or roll number, case-insensitively.
	Search string
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	role := bson.M{}
	if len(f.Roles) > 0 {
		role["$in"] = f.Roles
	}
	if len(f.ExcludeRoles) > 0 {
		role["$nin"] = f.ExcludeRoles
	}
	if len(role) > 0 {
		q["role"] = role
	}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.Semester > 0 {
		q["semester"] = f.Semester
	}
	if f.AdmissionYear > 0 {
		q["admission_year"] = f.AdmissionYear
	}
	if f.ApprovalStatus != "" {
		q["approval_status"] = f.ApprovalStatus
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"email": rx},
			bson.M{"roll_number": rx},
		}
	}
	return q
}

// List returns matching accounts ordered by name, then creation.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "created_at", Value: 1}})
	out, err := s.find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Account{}
	}
	return out, nil
}

// ListRecent returns matching accounts newest first.
func (s *Store) ListRecent(ctx context.Context, f Filter) ([]models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	out, err := s.find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Account{}
	}
	return out, nil
}

// Count returns the number of matching accounts.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// IDs returns the ids of matching accounts.
func (s *Store) IDs(ctx context.Context, f Filter) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// OldestAdmin returns the earliest-created admin account.
func (s *Store) OldestAdmin(ctx context.Context) (*models.Account, error) {
	var a models.Account
	err := s.c.FindOne(ctx, bson.M{"role": models.RoleAdmin},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// PruneExcept deletes every account other than keep and returns how many were removed.
func (s *Store) PruneExcept(ctx context.Context, keep primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$ne": keep}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureAdmin creates an active admin with the given email and password hash
// unless an account with that email already exists. It reports whether an
// account was created.
func (s *Store) EnsureAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	_, err = s.Create(ctx, models.Account{
		Email:          email,
		PasswordHash:   passwordHash,
		Role:           models.RoleAdmin,
		Name:           "Administrator",
		IsOnboarded:    true,
		IsRegistered:   true,
		IsApproved:     true,
		ApprovalStatus: models.ApprovalApproved,
		IsActive:       true,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	return err == nil, err
}
