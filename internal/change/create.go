package change

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/notify"
	"github.com/crewplanhq/crewplan/internal/perm"
	"gorm.io/gorm"
)

// validReasonTypes is the closed set of reason categories.
var validReasonTypes = map[string]bool{
	models.ReasonEstimation:    true,
	models.ReasonSchool:        true,
	models.ReasonDesign:        true,
	models.ReasonManufacturing: true,
	models.ReasonRules:         true,
	models.ReasonOtherProject:  true,
	models.ReasonOther:         true,
}

// ReasonOpt is one categorized "why" entry for a scoped request.
type ReasonOpt struct {
	Type    string
	Explain string
}

// ScopedOpts holds parameters for creating a standard or scope change
// request.
type ScopedOpts struct {
	SubmitterID    string
	WBSElementID   string
	Type           string // STANDARD or SCOPE
	What           string
	ScopeImpact    string
	TimelineImpact int
	BudgetImpact   int
	Reasons        []ReasonOpt
}

// StageGateOpts holds parameters for creating a stage gate change request.
type StageGateOpts struct {
	SubmitterID    string
	WBSElementID   string
	LeftoverBudget int
	ConfirmDone    bool
}

// ActivationOpts holds parameters for creating an activation change request.
type ActivationOpts struct {
	SubmitterID    string
	WBSElementID   string
	LeadID         string
	ManagerID      string
	StartDate      time.Time
	ConfirmDetails bool
}

// CreateScoped creates a STANDARD or SCOPE change request with its detail
// row and reasons, then notifies the target element's lead best-effort.
func CreateScoped(db *gorm.DB, dispatcher *notify.Dispatcher, opts ScopedOpts) (*models.ChangeRequest, error) {
	if opts.Type != models.CRStandard && opts.Type != models.CRScope {
		return nil, fmt.Errorf("change: type %q is not a scoped request type: %w", opts.Type, errs.ErrValidation)
	}
	if opts.What == "" {
		return nil, fmt.Errorf("change: what is required: %w", errs.ErrValidation)
	}
	for i, r := range opts.Reasons {
		if !validReasonTypes[r.Type] {
			return nil, fmt.Errorf("change: reasons[%d] has unknown type %q: %w", i, r.Type, errs.ErrValidation)
		}
	}

	submitter, elem, err := createPreflight(db, opts.SubmitterID, opts.WBSElementID)
	if err != nil {
		return nil, err
	}

	cr, err := newRequest(db, opts.SubmitterID, opts.WBSElementID, opts.Type)
	if err != nil {
		return nil, err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cr).Error; err != nil {
			return fmt.Errorf("change: create request: %w", err)
		}
		detail := models.ScopeDetail{
			ChangeRequestID: cr.ID,
			What:            opts.What,
			ScopeImpact:     opts.ScopeImpact,
			TimelineImpact:  opts.TimelineImpact,
			BudgetImpact:    opts.BudgetImpact,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("change: create scope detail: %w", err)
		}
		for _, r := range opts.Reasons {
			reason := models.ChangeRequestReason{
				ScopeDetailID: detail.ID,
				Type:          r.Type,
				Explain:       r.Explain,
			}
			if err := tx.Create(&reason).Error; err != nil {
				return fmt.Errorf("change: create reason: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyCreated(db, dispatcher, cr, submitter, elem)
	return cr, nil
}

// CreateStageGate creates a STAGE_GATE change request.
func CreateStageGate(db *gorm.DB, dispatcher *notify.Dispatcher, opts StageGateOpts) (*models.ChangeRequest, error) {
	if !opts.ConfirmDone {
		return nil, fmt.Errorf("change: stage gate requires confirming the work is done: %w", errs.ErrValidation)
	}

	submitter, elem, err := createPreflight(db, opts.SubmitterID, opts.WBSElementID)
	if err != nil {
		return nil, err
	}

	cr, err := newRequest(db, opts.SubmitterID, opts.WBSElementID, models.CRStageGate)
	if err != nil {
		return nil, err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cr).Error; err != nil {
			return fmt.Errorf("change: create request: %w", err)
		}
		detail := models.StageGateDetail{
			ChangeRequestID: cr.ID,
			LeftoverBudget:  opts.LeftoverBudget,
			ConfirmDone:     opts.ConfirmDone,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("change: create stage gate detail: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyCreated(db, dispatcher, cr, submitter, elem)
	return cr, nil
}

// CreateActivation creates an ACTIVATION change request. The proposed lead
// and manager must exist.
func CreateActivation(db *gorm.DB, dispatcher *notify.Dispatcher, opts ActivationOpts) (*models.ChangeRequest, error) {
	if !opts.ConfirmDetails {
		return nil, fmt.Errorf("change: activation requires confirming the details were reviewed: %w", errs.ErrValidation)
	}
	if opts.LeadID == "" || opts.ManagerID == "" {
		return nil, fmt.Errorf("change: activation requires a lead and a manager: %w", errs.ErrValidation)
	}
	for _, id := range []string{opts.LeadID, opts.ManagerID} {
		if _, err := perm.GetUser(db, id); err != nil {
			return nil, err
		}
	}

	submitter, elem, err := createPreflight(db, opts.SubmitterID, opts.WBSElementID)
	if err != nil {
		return nil, err
	}

	cr, err := newRequest(db, opts.SubmitterID, opts.WBSElementID, models.CRActivation)
	if err != nil {
		return nil, err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cr).Error; err != nil {
			return fmt.Errorf("change: create request: %w", err)
		}
		detail := models.ActivationDetail{
			ChangeRequestID: cr.ID,
			LeadID:          opts.LeadID,
			ManagerID:       opts.ManagerID,
			StartDate:       opts.StartDate,
			ConfirmDetails:  opts.ConfirmDetails,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("change: create activation detail: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyCreated(db, dispatcher, cr, submitter, elem)
	return cr, nil
}

// createPreflight runs the shared creation preconditions: the submitter
// must hold at least the member role and the target element must exist.
func createPreflight(db *gorm.DB, submitterID, wbsElementID string) (*models.User, *models.WBSElement, error) {
	submitter, err := perm.RequireAtLeast(db, submitterID, models.RoleMember)
	if err != nil {
		return nil, nil, err
	}
	elem, err := getElement(db, wbsElementID)
	if err != nil {
		return nil, nil, err
	}
	return submitter, elem, nil
}

// newRequest builds an unsaved pending ChangeRequest with a fresh ID.
func newRequest(db *gorm.DB, submitterID, wbsElementID, crType string) (*models.ChangeRequest, error) {
	id, err := GenerateUniqueID(db, "cr", &models.ChangeRequest{})
	if err != nil {
		return nil, err
	}
	return &models.ChangeRequest{
		ID:           id,
		SubmitterID:  submitterID,
		WBSElementID: wbsElementID,
		Type:         crType,
	}, nil
}

// getElement loads a WBS element with its detail rows.
func getElement(db *gorm.DB, id string) (*models.WBSElement, error) {
	var elem models.WBSElement
	if err := db.Preload("Project").Preload("WorkPackage").Where("id = ?", id).First(&elem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("change: wbs element %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("change: get wbs element %s: %w", id, err)
	}
	return &elem, nil
}

// notifyCreated tells the target element's lead about a new request.
// Best-effort: lookup or delivery failures never surface.
func notifyCreated(db *gorm.DB, dispatcher *notify.Dispatcher, cr *models.ChangeRequest, submitter *models.User, elem *models.WBSElement) {
	if dispatcher == nil || elem.LeadID == nil {
		return
	}
	lead, err := perm.GetUser(db, *elem.LeadID)
	if err != nil {
		return
	}
	evt := notify.ChangeRequestCreated(cr, submitter, elem.WBSNumber)
	dispatcher.Direct(context.Background(), lead, evt)
}
