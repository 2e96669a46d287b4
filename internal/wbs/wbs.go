// Package wbs provides work breakdown structure number helpers.
//
// A WBS number has the form "car.project.workPackage", e.g. "1.2.0" for
// the second project on car 1 and "1.2.3" for its third work package. A
// zero work-package part means the number identifies a project.
package wbs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crewplanhq/crewplan/internal/errs"
)

// Number is a parsed WBS number.
type Number struct {
	Car         int
	Project     int
	WorkPackage int
}

// Parse parses a dotted WBS number string.
func Parse(s string) (Number, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Number{}, fmt.Errorf("wbs: %q: want three dotted parts: %w", s, errs.ErrValidation)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Number{}, fmt.Errorf("wbs: %q: part %q is not a non-negative integer: %w", s, p, errs.ErrValidation)
		}
		nums[i] = n
	}
	if nums[0] == 0 || nums[1] == 0 {
		return Number{}, fmt.Errorf("wbs: %q: car and project parts must be positive: %w", s, errs.ErrValidation)
	}
	return Number{Car: nums[0], Project: nums[1], WorkPackage: nums[2]}, nil
}

// String formats the number back to dotted form.
func (n Number) String() string {
	return fmt.Sprintf("%d.%d.%d", n.Car, n.Project, n.WorkPackage)
}

// IsProject reports whether the number identifies a project rather than a
// work package.
func (n Number) IsProject() bool {
	return n.WorkPackage == 0
}

// ProjectNumber returns the number of the owning project. For a project
// number it returns the number itself.
func (n Number) ProjectNumber() Number {
	return Number{Car: n.Car, Project: n.Project}
}

// Validate checks that s parses and matches the expected element kind.
func Validate(s string, wantProject bool) error {
	n, err := Parse(s)
	if err != nil {
		return err
	}
	if n.IsProject() != wantProject {
		kind := "work package"
		if n.IsProject() {
			kind = "project"
		}
		return fmt.Errorf("wbs: %q identifies a %s: %w", s, kind, errs.ErrValidation)
	}
	return nil
}
