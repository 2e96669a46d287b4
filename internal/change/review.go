package change

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/notify"
	"github.com/crewplanhq/crewplan/internal/perm"
	"gorm.io/gorm"
)

// ReviewOpts holds parameters for reviewing a pending change request.
type ReviewOpts struct {
	ReviewerID         string
	Notes              string
	Accepted           bool
	ProposedSolutionID string // required when accepting a standard/scope request
}

// Review applies the single pending-to-terminal transition on a change
// request. On acceptance the type-specific effects (budget and duration
// mutation, checklist-gated completion, leadership reassignment and
// activation) are applied together with their audit records in one
// transaction; a conditional update on the review outcome serializes
// concurrent reviews of the same request, so the loser fails with
// ErrAlreadyReviewed and nothing it did is committed. The submitter is
// notified after commit, best-effort. Returns the request ID.
func Review(db *gorm.DB, dispatcher *notify.Dispatcher, crID string, opts ReviewOpts) (string, error) {
	reviewer, err := perm.RequireAtLeast(db, opts.ReviewerID, models.RoleLeadership)
	if err != nil {
		return "", err
	}

	cr, err := Get(db, crID)
	if err != nil {
		return "", err
	}
	if cr.SubmitterID == opts.ReviewerID {
		return "", fmt.Errorf("change: reviewer %s submitted request %s: %w",
			opts.ReviewerID, crID, errs.ErrAccessDenied)
	}
	if cr.Accepted != nil {
		return "", fmt.Errorf("change: request %s: %w", crID, errs.ErrAlreadyReviewed)
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		// Claim the review first. The condition on accepted IS NULL is the
		// serialization point: of two concurrent reviews only one row
		// update succeeds, and a later failure rolls the claim back.
		res := tx.Model(&models.ChangeRequest{}).
			Where("id = ? AND accepted IS NULL", crID).
			Updates(map[string]interface{}{
				"accepted":      opts.Accepted,
				"reviewer_id":   opts.ReviewerID,
				"review_notes":  opts.Notes,
				"date_reviewed": now,
			})
		if res.Error != nil {
			return fmt.Errorf("change: claim review of %s: %w", crID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("change: request %s: %w", crID, errs.ErrAlreadyReviewed)
		}

		if !opts.Accepted {
			return nil
		}

		var details []string
		switch cr.Type {
		case models.CRStandard, models.CRScope:
			details, err = applyScopedAcceptance(tx, cr, opts.ProposedSolutionID)
		case models.CRStageGate:
			details, err = applyStageGateAcceptance(tx, cr)
		case models.CRActivation:
			details, err = applyActivationAcceptance(tx, cr)
		default:
			err = fmt.Errorf("change: request %s has unknown type %q", crID, cr.Type)
		}
		if err != nil {
			return err
		}
		return AppendRecords(tx, cr, opts.ReviewerID, details)
	})
	if err != nil {
		return "", err
	}

	notifyReviewed(db, dispatcher, cr, reviewer, opts)
	return crID, nil
}

// applyScopedAcceptance applies the accepted solution of a standard or
// scope request: the owning project's budget absorbs the budget impact,
// and a work-package target additionally absorbs the timeline impact
// into its duration. The solution is marked approved.
func applyScopedAcceptance(tx *gorm.DB, cr *models.ChangeRequest, solutionID string) ([]string, error) {
	if solutionID == "" {
		return nil, fmt.Errorf("change: accepting request %s needs a proposed solution: %w",
			cr.ID, errs.ErrValidation)
	}
	var sol models.ProposedSolution
	if err := tx.Where("id = ?", solutionID).First(&sol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("change: proposed solution %s: %w", solutionID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("change: get solution %s: %w", solutionID, err)
	}
	if sol.ChangeRequestID != cr.ID {
		return nil, fmt.Errorf("change: solution %s belongs to request %s, not %s: %w",
			solutionID, sol.ChangeRequestID, cr.ID, errs.ErrValidation)
	}

	elem, err := getElement(tx, cr.WBSElementID)
	if err != nil {
		return nil, err
	}
	project, err := owningProject(tx, elem)
	if err != nil {
		return nil, err
	}

	var details []string
	newBudget := project.Budget + sol.BudgetImpact
	if detail, ok := FieldChange("Budget", strconv.Itoa(project.Budget), strconv.Itoa(newBudget)); ok {
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("budget", newBudget).Error; err != nil {
			return nil, fmt.Errorf("change: update budget: %w", err)
		}
		details = append(details, detail)
	}
	if elem.WorkPackage != nil {
		newDuration := elem.WorkPackage.Duration + sol.TimelineImpact
		if detail, ok := FieldChange("Duration", strconv.Itoa(elem.WorkPackage.Duration), strconv.Itoa(newDuration)); ok {
			if err := tx.Model(&models.WorkPackage{}).Where("id = ?", elem.WorkPackage.ID).
				Update("duration", newDuration).Error; err != nil {
				return nil, fmt.Errorf("change: update duration: %w", err)
			}
			details = append(details, detail)
		}
	}

	if err := tx.Model(&models.ProposedSolution{}).Where("id = ?", sol.ID).
		Update("approved", true).Error; err != nil {
		return nil, fmt.Errorf("change: approve solution %s: %w", sol.ID, err)
	}
	return details, nil
}

// applyStageGateAcceptance promotes the element to COMPLETE. A work
// package may only pass the gate once every expected activity and
// deliverable is checked; an unchecked item aborts the whole transition,
// leaving the request pending.
func applyStageGateAcceptance(tx *gorm.DB, cr *models.ChangeRequest) ([]string, error) {
	elem, err := getElement(tx, cr.WBSElementID)
	if err != nil {
		return nil, err
	}

	if elem.WorkPackage != nil {
		var unchecked int64
		err := tx.Model(&models.DescriptionBullet{}).
			Where("owner_id = ? AND kind IN ? AND checked = ?",
				elem.WorkPackage.ID,
				[]string{models.BulletExpectedActivity, models.BulletDeliverable},
				false).
			Count(&unchecked).Error
		if err != nil {
			return nil, fmt.Errorf("change: count unchecked items: %w", err)
		}
		if unchecked > 0 {
			return nil, fmt.Errorf("change: %s has %d unchecked expected activities or deliverables: %w",
				elem.WBSNumber, unchecked, errs.ErrValidation)
		}
	}

	var details []string
	if detail, ok := FieldChange("Status", elem.Status, models.WBSComplete); ok {
		if err := tx.Model(&models.WBSElement{}).Where("id = ?", elem.ID).
			Update("status", models.WBSComplete).Error; err != nil {
			return nil, fmt.Errorf("change: update status: %w", err)
		}
		details = append(details, detail)
	}
	return details, nil
}

// applyActivationAcceptance moves the element to ACTIVE and takes over the
// proposed lead, manager, and start date wherever they differ from the
// current values. Each difference produces one audit detail.
func applyActivationAcceptance(tx *gorm.DB, cr *models.ChangeRequest) ([]string, error) {
	act := cr.Activation
	if act == nil {
		return nil, fmt.Errorf("change: request %s has no activation detail: %w", cr.ID, errs.ErrValidation)
	}
	elem, err := getElement(tx, cr.WBSElementID)
	if err != nil {
		return nil, err
	}

	var details []string
	updates := map[string]interface{}{"status": models.WBSActive}

	if detail, ok := FieldChangePtr("Lead", elem.LeadID, &act.LeadID); ok {
		updates["lead_id"] = act.LeadID
		details = append(details, detail)
	}
	if detail, ok := FieldChangePtr("Manager", elem.ManagerID, &act.ManagerID); ok {
		updates["manager_id"] = act.ManagerID
		details = append(details, detail)
	}
	if elem.WorkPackage != nil {
		oldDate := elem.WorkPackage.StartDate.Format("2006-01-02")
		newDate := act.StartDate.Format("2006-01-02")
		if detail, ok := FieldChange("Start Date", oldDate, newDate); ok {
			if err := tx.Model(&models.WorkPackage{}).Where("id = ?", elem.WorkPackage.ID).
				Update("start_date", act.StartDate).Error; err != nil {
				return nil, fmt.Errorf("change: update start date: %w", err)
			}
			details = append(details, detail)
		}
	}
	if detail, ok := FieldChange("Status", elem.Status, models.WBSActive); ok {
		details = append(details, detail)
	}

	if err := tx.Model(&models.WBSElement{}).Where("id = ?", elem.ID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("change: update element: %w", err)
	}
	return details, nil
}

// owningProject resolves the project row whose budget a request mutates:
// the element's own project detail, or the parent project of a work
// package.
func owningProject(tx *gorm.DB, elem *models.WBSElement) (*models.Project, error) {
	if elem.Project != nil {
		return elem.Project, nil
	}
	if elem.WorkPackage == nil {
		return nil, fmt.Errorf("change: element %s has no project or work package detail: %w",
			elem.ID, errs.ErrValidation)
	}
	var project models.Project
	if err := tx.Where("id = ?", elem.WorkPackage.ProjectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("change: parent project of %s: %w", elem.ID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("change: get parent project of %s: %w", elem.ID, err)
	}
	return &project, nil
}

// notifyReviewed tells the submitter the outcome, best-effort. Submitters
// without a delivery address on file are skipped.
func notifyReviewed(db *gorm.DB, dispatcher *notify.Dispatcher, cr *models.ChangeRequest, reviewer *models.User, opts ReviewOpts) {
	if dispatcher == nil {
		return
	}
	submitter, err := perm.GetUser(db, cr.SubmitterID)
	if err != nil {
		return
	}
	cr.ReviewNotes = opts.Notes
	evt := notify.ChangeRequestReviewed(cr, reviewer, opts.Accepted)
	dispatcher.Direct(context.Background(), submitter, evt)
}
