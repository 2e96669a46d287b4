package change

import (
	"errors"
	"fmt"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/perm"
	"gorm.io/gorm"
)

// SolutionOpts holds parameters for proposing a solution on a pending
// standard or scope change request.
type SolutionOpts struct {
	CreatorID      string
	Description    string
	ScopeImpact    string
	TimelineImpact int
	BudgetImpact   int
}

// ProposeSolution attaches a candidate solution to a pending request.
// Solutions cannot be added after review, and only standard/scope
// requests carry them.
func ProposeSolution(db *gorm.DB, crID string, opts SolutionOpts) (*models.ProposedSolution, error) {
	if opts.Description == "" {
		return nil, fmt.Errorf("change: solution description is required: %w", errs.ErrValidation)
	}
	if _, err := perm.RequireAtLeast(db, opts.CreatorID, models.RoleMember); err != nil {
		return nil, err
	}

	cr, err := Get(db, crID)
	if err != nil {
		return nil, err
	}
	if cr.Type != models.CRStandard && cr.Type != models.CRScope {
		return nil, fmt.Errorf("change: %s requests do not take proposed solutions: %w", cr.Type, errs.ErrValidation)
	}
	if cr.Accepted != nil {
		return nil, fmt.Errorf("change: request %s: %w", crID, errs.ErrAlreadyReviewed)
	}

	id, err := GenerateUniqueID(db, "sol", &models.ProposedSolution{})
	if err != nil {
		return nil, err
	}
	sol := models.ProposedSolution{
		ID:              id,
		ChangeRequestID: crID,
		CreatorID:       opts.CreatorID,
		Description:     opts.Description,
		ScopeImpact:     opts.ScopeImpact,
		TimelineImpact:  opts.TimelineImpact,
		BudgetImpact:    opts.BudgetImpact,
	}
	if err := db.Create(&sol).Error; err != nil {
		return nil, fmt.Errorf("change: create solution: %w", err)
	}
	return &sol, nil
}

// Get retrieves a change request with its detail rows and audit records.
func Get(db *gorm.DB, id string) (*models.ChangeRequest, error) {
	var cr models.ChangeRequest
	err := db.
		Preload("Scope").
		Preload("Scope.Reasons").
		Preload("Scope.Solutions").
		Preload("StageGate").
		Preload("Activation").
		Preload("Records").
		Where("id = ?", id).
		First(&cr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("change: request %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("change: get request %s: %w", id, err)
	}
	return &cr, nil
}

// ListFilters holds optional filters for listing change requests.
type ListFilters struct {
	WBSElementID string
	SubmitterID  string
	Type         string
	Pending      bool // only requests with no review outcome
}

// List returns change requests matching the given filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.ChangeRequest, error) {
	q := db.Model(&models.ChangeRequest{})

	if filters.WBSElementID != "" {
		q = q.Where("wbs_element_id = ?", filters.WBSElementID)
	}
	if filters.SubmitterID != "" {
		q = q.Where("submitter_id = ?", filters.SubmitterID)
	}
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	if filters.Pending {
		q = q.Where("accepted IS NULL")
	}

	var crs []models.ChangeRequest
	if err := q.Order("created_at DESC").Find(&crs).Error; err != nil {
		return nil, fmt.Errorf("change: list: %w", err)
	}
	return crs, nil
}
