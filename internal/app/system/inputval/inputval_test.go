package inputval

import (
	"strings"
	"testing"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
)

type sampleRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"notblank"`
	Department string `json:"department" validate:"department"`
	Section    string `json:"section,omitempty" validate:"omitempty,section"`
	Semester   int    `json:"semester" validate:"min=1,max=8"`
	GuideID    string `json:"guideId,omitempty" validate:"omitempty,objectid"`
}

func TestStruct_Valid(t *testing.T) {
	req := sampleRequest{
		Email:      "22cse001@charusat.edu.in",
		Name:       "Asha",
		Department: "cse",
		Section:    "b",
		Semester:   5,
		GuideID:    "64b7f0c2a1b2c3d4e5f60718",
	}
	if err := Struct(req); err != nil {
		t.Fatalf("Struct: unexpected error %v", err)
	}
}

func TestStruct_ReportsEveryFieldByJSONName(t *testing.T) {
	req := sampleRequest{
		Email:      "",
		Name:       "   ",
		Department: "MBA",
		Section:    "Z",
		Semester:   9,
		GuideID:    "nope",
	}
	err := Struct(req)
	if !apperr.Is(err, apperr.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	msg := apperr.MessageOf(err)
	for _, want := range []string{
		"email is a required field",
		"name cannot be blank",
		"department must be one of CSE",
		"section must be one of A, B, C, D",
		"semester must be 8 or less",
		"guideId must be a valid id",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not contain %q", msg, want)
		}
	}
}

func TestVar(t *testing.T) {
	if err := Var("reportId", "64b7f0c2a1b2c3d4e5f60718", "required,objectid"); err != nil {
		t.Errorf("Var: unexpected error %v", err)
	}
	err := Var("reportId", "", "required,objectid")
	if !apperr.Is(err, apperr.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if got := apperr.MessageOf(err); got != "reportId is a required field" {
		t.Errorf("message: got %q", got)
	}
}
