package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"22cse001@charusat.edu.in", "22cse001@charusat.edu.in"},
		{"22CSE001@CHARUSAT.EDU.IN", "22cse001@charusat.edu.in"},
		{"  Prof.Shah@Charusat.ac.in  ", "prof.shah@charusat.ac.in"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Asha Patel", "Asha Patel"},
		{"  Asha   Patel  ", "Asha Patel"},
		{"", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"student", "student"},
		{"HOD", "hod"},
		{"  Faculty ", "faculty"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Role(tt.input)
			if got != tt.want {
				t.Errorf("Role(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDepartmentAndSection(t *testing.T) {
	if got := Department(" cse "); got != "CSE" {
		t.Errorf("Department: got %q, want %q", got, "CSE")
	}
	if got := Section("b"); got != "B" {
		t.Errorf("Section: got %q, want %q", got, "B")
	}
	if got := GroupID(" cse-s5-24-ab12 "); got != "CSE-S5-24-AB12" {
		t.Errorf("GroupID: got %q", got)
	}
}

func TestStrings(t *testing.T) {
	got := Strings([]string{" a ", "", "  ", "b"})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Strings: got %v, want %v", got, want)
	}
}
