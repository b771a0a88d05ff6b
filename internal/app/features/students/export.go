package students

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/app/system/export"
	"github.com/dalemusser/studentportal/internal/app/system/jsonapi"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.uber.org/zap"
)

var exportHeader = []string{
	"Name", "Email", "Roll Number", "Department", "Semester", "Section",
	"Admission Year", "Phone", "Status",
}

func exportRow(a models.Account) []string {
	sem := ""
	if a.Semester > 0 {
		sem = strconv.Itoa(a.Semester)
	}
	year := ""
	if a.AdmissionYear > 0 {
		year = strconv.Itoa(a.AdmissionYear)
	}
	status := "active"
	if !a.IsActive {
		status = "inactive"
	}
	return []string{
		a.Name, a.Email, a.RollNumber, a.Department, sem, a.Section,
		year, a.PhoneNumber, status,
	}
}

// ServeExport handles GET /students/export with the same filters as the
// list, answering an xlsx attachment.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export students")
	defer cancel()

	list, err := h.Accounts.List(ctx, f)
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, exportRow(a))
	}
	wb, err := export.NewWorkbook([]export.SheetSpec{{Title: "Students", Header: exportHeader, Rows: rows}})
	if err != nil {
		jsonapi.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	defer wb.Close()

	name := "students"
	if f.Department != "" {
		name += "-" + f.Department
	}
	name += "-" + time.Now().Format("20060102") + ".xlsx"

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := wb.WriteTo(w); err != nil {
		h.Log.Warn("student export write failed", zap.Error(err))
	}
}
