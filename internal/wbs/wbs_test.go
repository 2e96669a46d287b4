package wbs

import (
	"errors"
	"testing"

	"github.com/crewplanhq/crewplan/internal/errs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Number
	}{
		{"1.2.0", Number{Car: 1, Project: 2, WorkPackage: 0}},
		{"1.1.3", Number{Car: 1, Project: 1, WorkPackage: 3}},
		{"2.10.14", Number{Car: 2, Project: 10, WorkPackage: 14}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "1.2", "1.2.3.4", "a.b.c", "1.-2.0", "0.1.0", "1.0.0", "1..0"} {
		_, err := Parse(in)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
			continue
		}
		if !errors.Is(err, errs.ErrValidation) {
			t.Errorf("Parse(%q) error = %v, want ErrValidation", in, err)
		}
	}
}

func TestString(t *testing.T) {
	n := Number{Car: 1, Project: 2, WorkPackage: 3}
	if got := n.String(); got != "1.2.3" {
		t.Errorf("String() = %q, want 1.2.3", got)
	}
}

func TestIsProject(t *testing.T) {
	if !(Number{Car: 1, Project: 2}).IsProject() {
		t.Error("1.2.0 should be a project")
	}
	if (Number{Car: 1, Project: 2, WorkPackage: 1}).IsProject() {
		t.Error("1.2.1 should not be a project")
	}
}

func TestProjectNumber(t *testing.T) {
	wp := Number{Car: 1, Project: 2, WorkPackage: 5}
	if got := wp.ProjectNumber(); got.String() != "1.2.0" {
		t.Errorf("ProjectNumber() = %q, want 1.2.0", got)
	}
	proj := Number{Car: 1, Project: 2}
	if got := proj.ProjectNumber(); got != proj {
		t.Errorf("ProjectNumber() = %+v, want itself", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("1.2.0", true); err != nil {
		t.Errorf("Validate project: %v", err)
	}
	if err := Validate("1.2.3", false); err != nil {
		t.Errorf("Validate work package: %v", err)
	}
	if err := Validate("1.2.3", true); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Validate kind mismatch = %v, want ErrValidation", err)
	}
	if err := Validate("1.2.0", false); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Validate kind mismatch = %v, want ErrValidation", err)
	}
	if err := Validate("garbage", true); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Validate parse failure = %v, want ErrValidation", err)
	}
}
