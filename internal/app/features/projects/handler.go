// internal/app/features/projects/handler.go
package projects

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/studentportal/internal/app/policy/projectpolicy"
	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/normalize"
	"github.com/dalemusser/studentportal/internal/app/system/notify"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /projects and /projects/{groupId}/reports.
type Handler struct {
	Svc *Service
	Log *zap.Logger
}

// NewHandler constructs the projects handler. It is called from
// BuildHandler once the database and relay exist.
func NewHandler(db *mongo.Database, relay *notify.Relay, logger *zap.Logger) *Handler {
	return &Handler{
		Svc: NewService(db, relay, logger),
		Log: logger,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (projectpolicy.Actor, bool) {
	a, ok := projectpolicy.ActorFromRequest(r)
	if !ok {
		jsonapi.Fail(w, r, apperr.Unauthorized, "authentication required")
	}
	return a, ok
}

// ServeList handles GET /projects.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	q := ListQuery{Department: normalize.QueryParam(r.URL.Query().Get("department"))}
	if raw := normalize.QueryParam(r.URL.Query().Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year <= 0 {
			jsonapi.Fail(w, r, apperr.BadRequest, "year must be a positive number")
			return
		}
		q.Year = year
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list projects")
	defer cancel()

	groups, err := h.Svc.List(ctx, actor, q)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"projects": groups})
}

type createRequest struct {
	Title        string   `json:"title" validate:"notblank,max=200"`
	Description  string   `json:"description" validate:"max=4000"`
	Domain       string   `json:"domain" validate:"max=200"`
	Department   string   `json:"department" validate:"omitempty,department"`
	Semester     int      `json:"semester" validate:"omitempty,min=1,max=8"`
	MemberIDs    []string `json:"memberIds" validate:"max=20"`
	MemberEmails []string `json:"memberEmails" validate:"max=20"`
}

// HandleCreate handles POST /projects.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create project")
	defer cancel()

	g, err := h.Svc.Create(ctx, actor, CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Domain:       req.Domain,
		Department:   req.Department,
		Semester:     req.Semester,
		MemberIDs:    req.MemberIDs,
		MemberEmails: req.MemberEmails,
	})
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	jsonapi.WriteOK(w, http.StatusCreated, map[string]any{"project": g})
}

// patchRequest is the tagged body of PATCH /projects. Exactly one of the
// action, approve, or guide variants may be set.
type patchRequest struct {
	ProjectID string `json:"projectId"`
	GroupID   string `json:"groupId"`

	Action      string `json:"action"`
	MemberID    string `json:"memberId"`
	MemberEmail string `json:"memberEmail"`

	Approve *bool `json:"approve"`

	InternalGuideID string                `json:"internalGuideId"`
	ExternalGuide   *models.ExternalGuide `json:"externalGuide"`
}

func (p patchRequest) ref() string {
	if id := strings.TrimSpace(p.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(p.GroupID)
}

func (p patchRequest) variants() int {
	n := 0
	if strings.TrimSpace(p.Action) != "" {
		n++
	}
	if p.Approve != nil {
		n++
	}
	if strings.TrimSpace(p.InternalGuideID) != "" || p.ExternalGuide != nil {
		n++
	}
	return n
}

// HandlePatch handles PATCH /projects.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req patchRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	ref := req.ref()
	if ref == "" {
		jsonapi.Fail(w, r, apperr.BadRequest, "projectId or groupId is required")
		return
	}
	if req.variants() != 1 {
		jsonapi.Fail(w, r, apperr.BadRequest, "exactly one of action, approve or guide assignment is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "patch project")
	defer cancel()

	var (
		g   *models.ProjectGroup
		err error
	)
	who := MemberRef{ID: req.MemberID, Email: req.MemberEmail}
	switch {
	case req.Action == "addMember":
		g, err = h.Svc.AddMember(ctx, ref, actor, who)
	case req.Action == "removeMember":
		g, err = h.Svc.RemoveMember(ctx, ref, actor, who)
	case req.Action != "":
		err = apperr.E(apperr.BadRequest, "unknown action "+strconv.Quote(req.Action))
	case req.Approve != nil:
		g, err = h.Svc.SetApproval(ctx, ref, actor, *req.Approve)
	default:
		g, err = h.Svc.AssignGuide(ctx, ref, actor, req.InternalGuideID, req.ExternalGuide)
	}
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"project": g})
}
