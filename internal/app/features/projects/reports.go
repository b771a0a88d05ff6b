package projects

import (
	"net/http"

	"github.com/dalemusser/studentportal/internal/app/system/inputval"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeReports handles GET /projects/{groupId}/reports.
func (h *Handler) ServeReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list reports")
	defer cancel()

	reports, err := h.Svc.ListReports(ctx, chi.URLParam(r, "groupId"), actor)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"reports": reports})
}

type submitReportRequest struct {
	Summary         string `json:"summary" validate:"notblank,max=4000"`
	Accomplishments string `json:"accomplishments" validate:"max=4000"`
	Blockers        string `json:"blockers" validate:"max=4000"`
	PlanNextWeek    string `json:"planNextWeek" validate:"max=4000"`
}

// HandleSubmitReport handles POST /projects/{groupId}/reports.
func (h *Handler) HandleSubmitReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req submitReportRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit report")
	defer cancel()

	report, err := h.Svc.SubmitReport(ctx, chi.URLParam(r, "groupId"), actor, ReportInput{
		Summary:         req.Summary,
		Accomplishments: req.Accomplishments,
		Blockers:        req.Blockers,
		PlanNextWeek:    req.PlanNextWeek,
	})
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	jsonapi.WriteOK(w, http.StatusCreated, map[string]any{"report": report})
}

type reviewReportRequest struct {
	ReportID string `json:"reportId" validate:"required,objectid"`
	Feedback string `json:"feedback" validate:"notblank,max=4000"`
}

// HandleReviewReport handles PATCH /projects/{groupId}/reports.
func (h *Handler) HandleReviewReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req reviewReportRequest
	if err := jsonapi.Decode(w, r, &req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "review report")
	defer cancel()

	report, err := h.Svc.ReviewReport(ctx, chi.URLParam(r, "groupId"), actor, req.ReportID, req.Feedback)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}
	jsonapi.WriteOK(w, http.StatusOK, map[string]any{"report": report})
}
