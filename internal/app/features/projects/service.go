// Package projects implements the project-group lifecycle: creation,
// membership, approval, guide assignment and weekly reports.
//
// Every mutation re-reads the group, re-checks the caller's rights against
// the fresh copy and writes it back conditionally on the revision it read.
// A lost race surfaces as Conflict; nothing is retried automatically.
package projects

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studentportal/internal/app/policy/projectpolicy"
	accountstore "github.com/dalemusser/studentportal/internal/app/store/accounts"
	projectgroupstore "github.com/dalemusser/studentportal/internal/app/store/projectgroups"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/notify"
	"github.com/dalemusser/studentportal/internal/app/system/validators"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Realtime events emitted to members' rooms.
const (
	EventProjectNew   = "project:new"
	EventProjectAdded = "project:added"
)

const groupIDAttempts = 5

var (
	errGroupNotFound   = apperr.E(apperr.NotFound, "project group not found")
	errConcurrent      = apperr.E(apperr.Conflict, "group was modified concurrently; retry")
	errInvalidMembers  = apperr.E(apperr.BadRequest, "Invalid members list")
	errNotAMember      = apperr.E(apperr.BadRequest, "Not a member")
	errManageForbidden = apperr.E(apperr.Forbidden, "only the group leader, an admin or a hod can change members")
	errStaffOnly       = apperr.E(apperr.Forbidden, "only an admin or a hod can do this")
)

// Service runs project-group operations.
type Service struct {
	accounts *accountstore.Store
	groups   *projectgroupstore.Store
	relay    *notify.Relay
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires the service to db. relay may be nil, in which case no
// events are published.
func NewService(db *mongo.Database, relay *notify.Relay, logger *zap.Logger) *Service {
	if relay == nil {
		relay = notify.NewRelay(0, logger)
	}
	return &Service{
		accounts: accountstore.New(db),
		groups:   projectgroupstore.New(db),
		relay:    relay,
		log:      logger,
		now:      time.Now,
	}
}

// MemberRef names a student by id or by email.
type MemberRef struct {
	ID    string
	Email string
}

func (m MemberRef) empty() bool {
	return strings.TrimSpace(m.ID) == "" && strings.TrimSpace(m.Email) == ""
}

// lookup resolves m to an account. It returns accountstore.ErrNotFound for
// a malformed id as well as for an unknown one.
func (s *Service) lookup(ctx context.Context, m MemberRef) (*models.Account, error) {
	if id := strings.TrimSpace(m.ID); id != "" {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, accountstore.ErrNotFound
		}
		return s.accounts.GetByID(ctx, oid)
	}
	return s.accounts.GetByEmail(ctx, m.Email)
}

// CreateInput is the payload of Create.
type CreateInput struct {
	Title        string
	Description  string
	Domain       string
	Department   string
	Semester     int
	MemberIDs    []string
	MemberEmails []string
}

// Create makes a new group led by actor, who must be a student. Department
// and semester default to the leader's own.
func (s *Service) Create(ctx context.Context, actor projectpolicy.Actor, in CreateInput) (g *models.ProjectGroup, err error) {
	defer func() { metrics.GroupMutations.WithLabelValues("create", metrics.Outcome(err)).Inc() }()

	if actor.Role != models.RoleStudent {
		return nil, apperr.E(apperr.Forbidden, "only students can create project groups")
	}
	leader, err := s.accounts.GetByID(ctx, actor.ID)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.E(apperr.NotFound, "account not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	title := htmlsanitize.Text(in.Title)
	if title == "" {
		return nil, apperr.E(apperr.BadRequest, "title is required")
	}
	dept := normalize.Department(in.Department)
	if dept == "" {
		dept = leader.Department
	}
	if !models.IsDepartment(dept) {
		return nil, apperr.E(apperr.BadRequest, "department is invalid")
	}
	sem := in.Semester
	if sem == 0 {
		sem = leader.Semester
	}
	if sem < 1 || sem > 8 {
		return nil, apperr.E(apperr.BadRequest, "semester must be between 1 and 8")
	}

	others, err := s.resolveMembers(ctx, in.MemberIDs, in.MemberEmails)
	if err != nil {
		return nil, err
	}

	members := []models.GroupMember{{Student: leader.ID, Role: models.MemberRoleLeader}}
	for _, id := range others {
		if id != leader.ID {
			members = append(members, models.GroupMember{Student: id, Role: models.MemberRoleMember})
		}
	}

	draft := models.ProjectGroup{
		Title:       title,
		Description: htmlsanitize.Text(in.Description),
		Domain:      htmlsanitize.Text(in.Domain),
		Department:  dept,
		Semester:    sem,
		Members:     members,
		Leader:      leader.ID,
		Status:      models.GroupStatusSubmitted,
		CreatedBy:   leader.ID,
	}

	var created models.ProjectGroup
	for attempt := 1; ; attempt++ {
		draft.GroupID = NewGroupID(dept, sem, s.now())
		draft.ChatRoomID = ChatRoomID(draft.GroupID)
		created, err = s.groups.Create(ctx, draft)
		if err == nil {
			break
		}
		if !errors.Is(err, projectgroupstore.ErrDuplicateGroupID) || attempt == groupIDAttempts {
			return nil, s.storeErr(err)
		}
		s.log.Debug("group id collision, retrying", zap.String("group_id", draft.GroupID))
	}

	payload := groupEvent(&created)
	for _, m := range created.Members {
		s.relay.Emit(notify.UserRoom(m.Student.Hex()), EventProjectNew, payload)
	}
	s.log.Info("project group created",
		zap.String("group_id", created.GroupID),
		zap.String("leader", leader.ID.Hex()),
		zap.Int("members", len(created.Members)))
	return &created, nil
}

// resolveMembers turns ids and emails into distinct student account ids.
// Anything that does not resolve to a student fails the whole list.
func (s *Service) resolveMembers(ctx context.Context, ids, emails []string) ([]primitive.ObjectID, error) {
	wantIDs := map[primitive.ObjectID]bool{}
	for _, raw := range normalize.Strings(ids) {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, errInvalidMembers
		}
		wantIDs[oid] = true
	}
	wantEmails := map[string]bool{}
	for _, raw := range normalize.Strings(emails) {
		wantEmails[normalize.Email(raw)] = true
	}

	var found []models.Account
	if len(wantIDs) > 0 {
		list := make([]primitive.ObjectID, 0, len(wantIDs))
		for id := range wantIDs {
			list = append(list, id)
		}
		byID, err := s.accounts.FindByIDs(ctx, list)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if len(byID) != len(wantIDs) {
			return nil, errInvalidMembers
		}
		found = append(found, byID...)
	}
	if len(wantEmails) > 0 {
		list := make([]string, 0, len(wantEmails))
		for e := range wantEmails {
			list = append(list, e)
		}
		byEmail, err := s.accounts.FindByEmails(ctx, list)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if len(byEmail) != len(wantEmails) {
			return nil, errInvalidMembers
		}
		found = append(found, byEmail...)
	}

	seen := map[primitive.ObjectID]bool{}
	out := make([]primitive.ObjectID, 0, len(found))
	for _, a := range found {
		if a.Role != models.RoleStudent {
			return nil, errInvalidMembers
		}
		if !seen[a.ID] {
			seen[a.ID] = true
			out = append(out, a.ID)
		}
	}
	return out, nil
}

// mutate loads the group named by ref, applies fn and saves it
// conditionally on the revision that was read.
func (s *Service) mutate(ctx context.Context, op, ref string, fn func(g *models.ProjectGroup) error) (g *models.ProjectGroup, err error) {
	defer func() { metrics.GroupMutations.WithLabelValues(op, metrics.Outcome(err)).Inc() }()

	g, err = s.get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := s.groups.Save(ctx, g); err != nil {
		return nil, s.storeErr(err)
	}
	return g, nil
}

func (s *Service) get(ctx context.Context, ref string) (*models.ProjectGroup, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.E(apperr.BadRequest, "projectId or groupId is required")
	}
	g, err := s.groups.Get(ctx, ref)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return g, nil
}

func (s *Service) storeErr(err error) error {
	switch {
	case errors.Is(err, projectgroupstore.ErrNotFound):
		return errGroupNotFound
	case errors.Is(err, projectgroupstore.ErrStaleRevision):
		return errConcurrent
	case validators.IsDocumentValidation(err):
		return apperr.Wrap(apperr.BadRequest, "project group failed validation", err)
	default:
		return apperr.Internal(err)
	}
}

// AddMember adds a student from the group's department.
func (s *Service) AddMember(ctx context.Context, ref string, actor projectpolicy.Actor, who MemberRef) (*models.ProjectGroup, error) {
	if who.empty() {
		return nil, apperr.E(apperr.BadRequest, "memberId or memberEmail is required")
	}
	var added *models.Account
	g, err := s.mutate(ctx, "add_member", ref, func(g *models.ProjectGroup) error {
		if !projectpolicy.CanManageMembers(actor, g) {
			return errManageForbidden
		}
		student, err := s.lookup(ctx, who)
		if errors.Is(err, accountstore.ErrNotFound) {
			return apperr.E(apperr.NotFound, "student not found")
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if student.Role != models.RoleStudent {
			return apperr.E(apperr.BadRequest, "only students can be group members")
		}
		if student.Department != g.Department {
			return apperr.E(apperr.BadRequest, "student must belong to the group's department")
		}
		if g.HasMember(student.ID) {
			return apperr.E(apperr.Conflict, "student is already a member")
		}
		g.Members = append(g.Members, models.GroupMember{Student: student.ID, Role: models.MemberRoleMember})
		added = student
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.relay.Emit(notify.UserRoom(added.ID.Hex()), EventProjectAdded, groupEvent(g))
	return g, nil
}

// RemoveMember removes a non-leader member.
func (s *Service) RemoveMember(ctx context.Context, ref string, actor projectpolicy.Actor, who MemberRef) (*models.ProjectGroup, error) {
	if who.empty() {
		return nil, apperr.E(apperr.BadRequest, "memberId or memberEmail is required")
	}
	return s.mutate(ctx, "remove_member", ref, func(g *models.ProjectGroup) error {
		if !projectpolicy.CanManageMembers(actor, g) {
			return errManageForbidden
		}
		student, err := s.lookup(ctx, who)
		if errors.Is(err, accountstore.ErrNotFound) {
			return errNotAMember
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if student.ID == g.Leader {
			return apperr.E(apperr.BadRequest, "the group leader cannot be removed")
		}
		idx := -1
		for i, m := range g.Members {
			if m.Student == student.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errNotAMember
		}
		g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
		return nil
	})
}

// SetApproval approves or rejects a group.
func (s *Service) SetApproval(ctx context.Context, ref string, actor projectpolicy.Actor, approve bool) (*models.ProjectGroup, error) {
	return s.mutate(ctx, "set_approval", ref, func(g *models.ProjectGroup) error {
		if !projectpolicy.CanApprove(actor) {
			return errStaffOnly
		}
		g.HODApproval = approve
		if approve {
			g.Status = models.GroupStatusApproved
		} else {
			g.Status = models.GroupStatusRejected
		}
		return nil
	})
}

// AssignGuide sets the internal guide, the external guide, or both.
// Assigning an internal guide publishes a guide-assigned notification to
// the guide and every member.
func (s *Service) AssignGuide(ctx context.Context, ref string, actor projectpolicy.Actor, internalGuideID string, external *models.ExternalGuide) (*models.ProjectGroup, error) {
	internalGuideID = strings.TrimSpace(internalGuideID)
	if internalGuideID == "" && external == nil {
		return nil, apperr.E(apperr.BadRequest, "internalGuideId or externalGuide is required")
	}

	var guide *models.Account
	g, err := s.mutate(ctx, "assign_guide", ref, func(g *models.ProjectGroup) error {
		if !projectpolicy.CanAssignGuide(actor) {
			return errStaffOnly
		}
		if internalGuideID != "" {
			acct, err := s.lookup(ctx, MemberRef{ID: internalGuideID})
			if errors.Is(err, accountstore.ErrNotFound) {
				return apperr.E(apperr.BadRequest, "internal guide must be an existing faculty or hod account")
			}
			if err != nil {
				return apperr.Internal(err)
			}
			if !models.IsStaffRole(acct.Role) {
				return apperr.E(apperr.BadRequest, "internal guide must be an existing faculty or hod account")
			}
			id := acct.ID
			g.InternalGuide = &id
			guide = acct
		}
		if external != nil {
			ext := *external
			htmlsanitize.Fields(&ext.Name, &ext.Organization, &ext.Phone)
			ext.Email = normalize.Email(ext.Email)
			g.ExternalGuide = &ext
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if guide != nil {
		name := guide.Name
		if name == "" {
			name = guide.Email
		}
		recipients := []string{guide.ID.Hex()}
		for _, id := range g.MemberIDs() {
			recipients = append(recipients, id.Hex())
		}
		s.relay.Publish(models.Notification{
			Type:       models.NotificationGuideAssigned,
			ProjectID:  g.ID.Hex(),
			GroupID:    g.GroupID,
			Title:      "Internal Guide Assigned",
			Message:    "Guide " + name + " assigned to group " + g.GroupID,
			Recipients: recipients,
		})
	}
	return g, nil
}

// ReportInput is the payload of SubmitReport.
type ReportInput struct {
	Summary         string
	Accomplishments string
	Blockers        string
	PlanNextWeek    string
}

// SubmitReport appends the leader's report for the current week.
func (s *Service) SubmitReport(ctx context.Context, ref string, actor projectpolicy.Actor, in ReportInput) (*models.WeeklyReport, error) {
	htmlsanitize.Fields(&in.Summary, &in.Accomplishments, &in.Blockers, &in.PlanNextWeek)
	if in.Summary == "" {
		return nil, apperr.E(apperr.BadRequest, "summary is required")
	}

	var report models.WeeklyReport
	_, err := s.mutate(ctx, "submit_report", ref, func(g *models.ProjectGroup) error {
		if !projectpolicy.CanSubmitReport(actor, g) {
			return apperr.E(apperr.Forbidden, "only the group leader can submit weekly reports")
		}
		now := s.now()
		start, end := WeekWindow(now)
		if g.HasReportForWeek(start) {
			return apperr.E(apperr.Conflict, "a report for this week already exists")
		}
		report = models.WeeklyReport{
			ID:              primitive.NewObjectID(),
			WeekStart:       start,
			WeekEnd:         end,
			Summary:         in.Summary,
			Accomplishments: in.Accomplishments,
			Blockers:        in.Blockers,
			PlanNextWeek:    in.PlanNextWeek,
			SubmittedBy:     actor.ID,
			SubmittedAt:     now.UTC(),
		}
		g.WeeklyReports = append(g.WeeklyReports, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ReviewReport records feedback on one report.
func (s *Service) ReviewReport(ctx context.Context, ref string, actor projectpolicy.Actor, reportID, feedback string) (*models.WeeklyReport, error) {
	rid, err := primitive.ObjectIDFromHex(strings.TrimSpace(reportID))
	if err != nil {
		return nil, apperr.E(apperr.NotFound, "report not found")
	}
	feedback = htmlsanitize.Text(feedback)
	if feedback == "" {
		return nil, apperr.E(apperr.BadRequest, "feedback is required")
	}

	var reviewed models.WeeklyReport
	_, err = s.mutate(ctx, "review_report", ref, func(g *models.ProjectGroup) error {
		if !projectpolicy.CanReviewReport(actor, g) {
			return apperr.E(apperr.Forbidden, "only the assigned guide, an admin or a hod can review reports")
		}
		idx := g.ReportIndex(rid)
		if idx < 0 {
			return apperr.E(apperr.NotFound, "report not found")
		}
		now := s.now().UTC()
		reviewer := actor.ID
		r := &g.WeeklyReports[idx]
		r.Feedback = feedback
		r.ReviewedBy = &reviewer
		r.ReviewedAt = &now
		reviewed = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reviewed, nil
}

// ListReports returns a group's weekly reports, newest week first.
func (s *Service) ListReports(ctx context.Context, ref string, actor projectpolicy.Actor) ([]models.WeeklyReport, error) {
	g, err := s.get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !projectpolicy.CanViewReports(actor, g) {
		return nil, apperr.E(apperr.Forbidden, "you cannot view this group's reports")
	}
	out := make([]models.WeeklyReport, 0, len(g.WeeklyReports))
	for i := len(g.WeeklyReports) - 1; i >= 0; i-- {
		out = append(out, g.WeeklyReports[i])
	}
	return out, nil
}

// ListQuery narrows List for admins and hods.
type ListQuery struct {
	Department string
	// Year filters by members' admission year.
	Year int
}

// List returns the groups actor may see, newest first: students their own
// groups, faculty the groups they guide, hods their department and admins
// everything.
func (s *Service) List(ctx context.Context, actor projectpolicy.Actor, q ListQuery) ([]models.ProjectGroup, error) {
	var f projectgroupstore.ListFilter
	switch actor.Role {
	case models.RoleStudent:
		f.MemberID = actor.ID
	case models.RoleFaculty:
		f.InternalGuide = actor.ID
	case models.RoleHOD:
		if actor.Department == "" {
			return []models.ProjectGroup{}, nil
		}
		f.Department = actor.Department
	case models.RoleAdmin:
		f.Department = normalize.Department(q.Department)
	default:
		return nil, apperr.E(apperr.Forbidden, "you do not have access to this resource")
	}

	if q.Year > 0 && actor.IsAdminOrHOD() {
		ids, err := s.accounts.IDs(ctx, accountstore.Filter{Roles: []string{models.RoleStudent}, AdmissionYear: q.Year})
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if ids == nil {
			ids = []primitive.ObjectID{}
		}
		f.AnyMemberIn = ids
	}

	groups, err := s.groups.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.populate(ctx, groups); err != nil {
		return nil, apperr.Internal(err)
	}
	return groups, nil
}

// populate fills member, leader and guide names with one account lookup.
// References to deleted accounts are left bare.
func (s *Service) populate(ctx context.Context, groups []models.ProjectGroup) error {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range groups {
		for _, m := range groups[i].Members {
			add(m.Student)
		}
		add(groups[i].Leader)
		if groups[i].InternalGuide != nil {
			add(*groups[i].InternalGuide)
		}
	}
	accts, err := s.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]*models.Account, len(accts))
	for i := range accts {
		byID[accts[i].ID] = &accts[i]
	}
	ref := func(id primitive.ObjectID) *models.PersonRef {
		a, ok := byID[id]
		if !ok {
			return nil
		}
		return &models.PersonRef{ID: a.ID, Name: a.Name, Email: a.Email}
	}

	for i := range groups {
		g := &groups[i]
		for j := range g.Members {
			if a, ok := byID[g.Members[j].Student]; ok {
				g.Members[j].Name = a.Name
				g.Members[j].Email = a.Email
			}
		}
		g.LeaderInfo = ref(g.Leader)
		if g.InternalGuide != nil {
			g.InternalGuideInfo = ref(*g.InternalGuide)
		}
	}
	return nil
}

func groupEvent(g *models.ProjectGroup) map[string]string {
	return map[string]string{
		"id":         g.ID.Hex(),
		"groupId":    g.GroupID,
		"title":      g.Title,
		"chatRoomId": g.ChatRoomID,
	}
}
