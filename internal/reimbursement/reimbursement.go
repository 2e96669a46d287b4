// Package reimbursement provides expense reimbursement tracking with a
// finance approval pipeline.
package reimbursement

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/perm"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidTransitions maps each reimbursement status to its valid next
// statuses. DENIED is reachable from any non-terminal status and is
// handled in isValidTransition.
var ValidTransitions = map[string][]string{
	models.ReimbursementPendingFinance:  {models.ReimbursementSaboSubmitted},
	models.ReimbursementSaboSubmitted:   {models.ReimbursementAdvisorApproved},
	models.ReimbursementAdvisorApproved: {models.ReimbursementReimbursed},
}

// CreateOpts holds parameters for filing a reimbursement.
type CreateOpts struct {
	RecipientID   string
	Amount        int // cents
	Vendor        string
	Account       string
	DateOfExpense time.Time
}

// ListFilters holds optional filters for listing reimbursements.
type ListFilters struct {
	RecipientID string
	Status      string
}

// Create files a reimbursement for the recipient. Members and above file
// their own.
func Create(db *gorm.DB, opts CreateOpts) (*models.Reimbursement, error) {
	if _, err := perm.RequireAtLeast(db, opts.RecipientID, models.RoleMember); err != nil {
		return nil, err
	}
	if opts.Amount <= 0 {
		return nil, fmt.Errorf("reimbursement: amount must be positive: %w", errs.ErrValidation)
	}
	if opts.Vendor == "" {
		return nil, fmt.Errorf("reimbursement: vendor is required: %w", errs.ErrValidation)
	}
	if opts.Account == "" {
		opts.Account = models.AccountBudget
	}
	if opts.Account != models.AccountCash && opts.Account != models.AccountBudget {
		return nil, fmt.Errorf("reimbursement: unknown account %q: %w", opts.Account, errs.ErrValidation)
	}

	r := models.Reimbursement{
		ID:            uuid.NewString(),
		RecipientID:   opts.RecipientID,
		Amount:        opts.Amount,
		Vendor:        opts.Vendor,
		Account:       opts.Account,
		Status:        models.ReimbursementPendingFinance,
		DateOfExpense: opts.DateOfExpense,
	}
	if err := db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("reimbursement: create: %w", err)
	}
	return &r, nil
}

// Get retrieves a reimbursement by ID with its recipient.
func Get(db *gorm.DB, id string) (*models.Reimbursement, error) {
	var r models.Reimbursement
	if err := db.Preload("Recipient").Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reimbursement: %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("reimbursement: get %s: %w", id, err)
	}
	return &r, nil
}

// List returns reimbursements matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Reimbursement, error) {
	q := db.Model(&models.Reimbursement{})

	if filters.RecipientID != "" {
		q = q.Where("recipient_id = ?", filters.RecipientID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}

	var rs []models.Reimbursement
	if err := q.Order("created_at DESC").Find(&rs).Error; err != nil {
		return nil, fmt.Errorf("reimbursement: list: %w", err)
	}
	return rs, nil
}

// SetStatus advances a reimbursement through the approval pipeline.
// Only heads and above move reimbursements.
func SetStatus(db *gorm.DB, actorID, id, status string) error {
	if _, err := perm.RequireAtLeast(db, actorID, models.RoleHead); err != nil {
		return err
	}
	r, err := Get(db, id)
	if err != nil {
		return err
	}
	if !isValidTransition(r.Status, status) {
		return fmt.Errorf("reimbursement: invalid status transition from %q to %q: %w", r.Status, status, errs.ErrValidation)
	}
	if err := db.Model(&models.Reimbursement{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("reimbursement: update %s: %w", id, err)
	}
	return nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	if to == models.ReimbursementDenied {
		return from != models.ReimbursementReimbursed && from != models.ReimbursementDenied
	}
	return slices.Contains(ValidTransitions[from], to)
}
