// Package workpackage provides work package lifecycle operations:
// creation under a project, listing, checklist toggles, and audited edits
// driven by accepted change requests.
package workpackage

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/crewplanhq/crewplan/internal/change"
	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/perm"
	"github.com/crewplanhq/crewplan/internal/wbs"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new work package.
type CreateOpts struct {
	CreatorID        string
	ProjectElementID string
	Name             string
	StartDate        time.Time
	Duration         int // weeks
	Activities       []string
	Deliverables     []string
	BlockedBy        []string // WBS element IDs
}

// Detail is a work package with its checklist and blocker lists loaded.
type Detail struct {
	Element      models.WBSElement
	Activities   []models.DescriptionBullet
	Deliverables []models.DescriptionBullet
	BlockedBy    []models.BlockedLink
}

// ListFilters holds optional filters for listing work packages.
type ListFilters struct {
	ProjectID uint
	Status    string
}

// Create creates a work package under a project, assigning the next free
// work package number. Leadership and above create work packages.
func Create(db *gorm.DB, opts CreateOpts) (*models.WBSElement, error) {
	if _, err := perm.RequireAtLeast(db, opts.CreatorID, models.RoleLeadership); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("workpackage: name is required: %w", errs.ErrValidation)
	}
	if opts.Duration < 1 {
		return nil, fmt.Errorf("workpackage: duration must be at least one week: %w", errs.ErrValidation)
	}

	var parent models.WBSElement
	if err := db.Preload("Project").Where("id = ?", opts.ProjectElementID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("workpackage: project %s: %w", opts.ProjectElementID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("workpackage: get project %s: %w", opts.ProjectElementID, err)
	}
	if parent.Project == nil {
		return nil, fmt.Errorf("workpackage: %s is not a project: %w", opts.ProjectElementID, errs.ErrValidation)
	}
	for _, blockerID := range opts.BlockedBy {
		var count int64
		if err := db.Model(&models.WBSElement{}).Where("id = ?", blockerID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("workpackage: check blocker: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("workpackage: blocker %s: %w", blockerID, errs.ErrNotFound)
		}
	}

	number, err := nextNumber(db, &parent)
	if err != nil {
		return nil, err
	}
	id, err := change.GenerateUniqueID(db, "wbs", &models.WBSElement{})
	if err != nil {
		return nil, err
	}
	elem := models.WBSElement{
		ID:        id,
		WBSNumber: number.String(),
		Name:      opts.Name,
		Status:    models.WBSInactive,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&elem).Error; err != nil {
			return fmt.Errorf("workpackage: create element: %w", err)
		}
		wp := models.WorkPackage{
			WBSElementID: elem.ID,
			ProjectID:    parent.Project.ID,
			OrderIndex:   number.WorkPackage,
			StartDate:    opts.StartDate,
			Duration:     opts.Duration,
		}
		if err := tx.Create(&wp).Error; err != nil {
			return fmt.Errorf("workpackage: create detail: %w", err)
		}
		for _, a := range opts.Activities {
			b := models.DescriptionBullet{OwnerID: wp.ID, Kind: models.BulletExpectedActivity, Detail: a}
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("workpackage: create activity: %w", err)
			}
		}
		for _, d := range opts.Deliverables {
			b := models.DescriptionBullet{OwnerID: wp.ID, Kind: models.BulletDeliverable, Detail: d}
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("workpackage: create deliverable: %w", err)
			}
		}
		for _, blockerID := range opts.BlockedBy {
			link := models.BlockedLink{WorkPackageID: wp.ID, BlockerID: blockerID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("workpackage: create blocked link: %w", err)
			}
		}
		elem.WorkPackage = &wp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &elem, nil
}

// nextNumber returns the project's WBS number with the next free work
// package part.
func nextNumber(db *gorm.DB, parent *models.WBSElement) (wbs.Number, error) {
	num, err := wbs.Parse(parent.WBSNumber)
	if err != nil {
		return wbs.Number{}, fmt.Errorf("workpackage: parent %s: %w", parent.ID, err)
	}
	var count int64
	if err := db.Model(&models.WorkPackage{}).Where("project_id = ?", parent.Project.ID).Count(&count).Error; err != nil {
		return wbs.Number{}, fmt.Errorf("workpackage: count siblings: %w", err)
	}
	num.WorkPackage = int(count) + 1
	return num, nil
}

// Get retrieves a work package by element ID with its checklists and
// blockers.
func Get(db *gorm.DB, id string) (*Detail, error) {
	var elem models.WBSElement
	err := db.
		Preload("WorkPackage").
		Preload("WorkPackage.Project").
		Preload("Lead").
		Preload("Manager").
		Where("id = ?", id).
		First(&elem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("workpackage: %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("workpackage: get %s: %w", id, err)
	}
	if elem.WorkPackage == nil {
		return nil, fmt.Errorf("workpackage: %s is not a work package: %w", id, errs.ErrNotFound)
	}

	activities, err := change.LoadBullets(db, elem.WorkPackage.ID, models.BulletExpectedActivity)
	if err != nil {
		return nil, err
	}
	deliverables, err := change.LoadBullets(db, elem.WorkPackage.ID, models.BulletDeliverable)
	if err != nil {
		return nil, err
	}
	var blocked []models.BlockedLink
	if err := db.Preload("Blocker").Where("work_package_id = ?", elem.WorkPackage.ID).Order("blocker_id ASC").Find(&blocked).Error; err != nil {
		return nil, fmt.Errorf("workpackage: load blockers: %w", err)
	}
	return &Detail{Element: elem, Activities: activities, Deliverables: deliverables, BlockedBy: blocked}, nil
}

// List returns work package elements matching the filters, ordered by WBS
// number.
func List(db *gorm.DB, filters ListFilters) ([]models.WBSElement, error) {
	q := db.Model(&models.WBSElement{}).
		Joins("JOIN work_packages ON work_packages.wbs_element_id = wbs_elements.id").
		Preload("WorkPackage")

	if filters.ProjectID != 0 {
		q = q.Where("work_packages.project_id = ?", filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("wbs_elements.status = ?", filters.Status)
	}

	var elems []models.WBSElement
	if err := q.Order("wbs_elements.wbs_number ASC").Find(&elems).Error; err != nil {
		return nil, fmt.Errorf("workpackage: list: %w", err)
	}
	return elems, nil
}

// EditOpts holds the full replacement state for an audited work package
// edit.
type EditOpts struct {
	EditorID        string
	ChangeRequestID string
	Name            string
	StartDate       time.Time
	Duration        int
	Activities      []change.BulletInput
	Deliverables    []change.BulletInput
	BlockedBy       []string // WBS element IDs
}

// Edit applies an audited edit to a work package. The edit must cite an
// accepted change request targeting this element; scalar changes, bullet
// list changes, and blocked-by link changes each land as a change record.
func Edit(db *gorm.DB, elementID string, opts EditOpts) error {
	if _, err := perm.RequireAtLeast(db, opts.EditorID, models.RoleLeadership); err != nil {
		return err
	}
	if opts.Name == "" {
		return fmt.Errorf("workpackage: name is required: %w", errs.ErrValidation)
	}
	if opts.Duration < 1 {
		return fmt.Errorf("workpackage: duration must be at least one week: %w", errs.ErrValidation)
	}
	cur, err := Get(db, elementID)
	if err != nil {
		return err
	}
	cr, err := change.RequireAccepted(db, opts.ChangeRequestID, elementID)
	if err != nil {
		return err
	}
	wp := cur.Element.WorkPackage

	oldLinks, err := linkItems(db, cur.BlockedBy)
	if err != nil {
		return err
	}
	newLinks, err := blockerItems(db, wp.ID, opts.BlockedBy)
	if err != nil {
		return err
	}

	var details []string
	if d, ok := change.FieldChange("Name", cur.Element.Name, opts.Name); ok {
		details = append(details, d)
	}
	if d, ok := change.FieldChange("Start Date", wp.StartDate.Format("2006-01-02"), opts.StartDate.Format("2006-01-02")); ok {
		details = append(details, d)
	}
	if d, ok := change.FieldChange("Duration", strconv.Itoa(wp.Duration), strconv.Itoa(opts.Duration)); ok {
		details = append(details, d)
	}
	activityDiff := change.DiffLists("Expected Activity", change.BulletItems(cur.Activities), change.InputItems(opts.Activities, wp.ID, models.BulletExpectedActivity))
	deliverableDiff := change.DiffLists("Deliverable", change.BulletItems(cur.Deliverables), change.InputItems(opts.Deliverables, wp.ID, models.BulletDeliverable))
	linkDiff := change.DiffLists("Blocked By", oldLinks, newLinks)
	details = append(details, activityDiff.Details...)
	details = append(details, deliverableDiff.Details...)
	details = append(details, linkDiff.Details...)
	if len(details) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WBSElement{}).Where("id = ?", elementID).Update("name", opts.Name).Error; err != nil {
			return fmt.Errorf("workpackage: update element: %w", err)
		}
		updates := map[string]interface{}{
			"start_date": opts.StartDate,
			"duration":   opts.Duration,
		}
		if err := tx.Model(&models.WorkPackage{}).Where("id = ?", wp.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("workpackage: update detail: %w", err)
		}
		if err := change.ApplyBulletDiff(tx, activityDiff); err != nil {
			return err
		}
		if err := change.ApplyBulletDiff(tx, deliverableDiff); err != nil {
			return err
		}
		for _, link := range linkDiff.Removed {
			if err := tx.Delete(&models.BlockedLink{}, "work_package_id = ? AND blocker_id = ?", link.WorkPackageID, link.BlockerID).Error; err != nil {
				return fmt.Errorf("workpackage: delete blocked link: %w", err)
			}
		}
		for _, link := range linkDiff.Added {
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("workpackage: create blocked link: %w", err)
			}
		}
		return change.AppendRecords(tx, cr, opts.EditorID, details)
	})
}

// CheckBullet toggles a checklist bullet. Only leadership and above
// check off expected activities and deliverables; goal and feature
// bullets are not checkable.
func CheckBullet(db *gorm.DB, userID string, bulletID uint, checked bool) error {
	user, err := perm.RequireAtLeast(db, userID, models.RoleLeadership)
	if err != nil {
		return err
	}
	var bullet models.DescriptionBullet
	if err := db.Where("id = ?", bulletID).First(&bullet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("workpackage: bullet %d: %w", bulletID, errs.ErrNotFound)
		}
		return fmt.Errorf("workpackage: get bullet %d: %w", bulletID, err)
	}
	if bullet.Kind != models.BulletExpectedActivity && bullet.Kind != models.BulletDeliverable {
		return fmt.Errorf("workpackage: %s bullets have no checkbox: %w", bullet.Kind, errs.ErrValidation)
	}

	updates := map[string]interface{}{"checked": checked}
	if checked {
		updates["checked_by_id"] = user.ID
	} else {
		updates["checked_by_id"] = nil
	}
	if err := db.Model(&models.DescriptionBullet{}).Where("id = ?", bulletID).Updates(updates).Error; err != nil {
		return fmt.Errorf("workpackage: check bullet %d: %w", bulletID, err)
	}
	return nil
}

// linkItems converts persisted blocked links into differ items keyed and
// displayed by the blocker's WBS number.
func linkItems(db *gorm.DB, links []models.BlockedLink) ([]change.ListItem[models.BlockedLink], error) {
	items := make([]change.ListItem[models.BlockedLink], 0, len(links))
	for _, link := range links {
		display, err := blockerNumber(db, link.Blocker, link.BlockerID)
		if err != nil {
			return nil, err
		}
		items = append(items, change.ListItem[models.BlockedLink]{
			Element: link,
			Key:     link.BlockerID,
			Display: display,
		})
	}
	return items, nil
}

// blockerItems converts submitted blocker element IDs into differ items.
func blockerItems(db *gorm.DB, wpID uint, blockerIDs []string) ([]change.ListItem[models.BlockedLink], error) {
	items := make([]change.ListItem[models.BlockedLink], 0, len(blockerIDs))
	for _, id := range blockerIDs {
		display, err := blockerNumber(db, nil, id)
		if err != nil {
			return nil, err
		}
		items = append(items, change.ListItem[models.BlockedLink]{
			Element: models.BlockedLink{WorkPackageID: wpID, BlockerID: id},
			Key:     id,
			Display: display,
		})
	}
	return items, nil
}

func blockerNumber(db *gorm.DB, loaded *models.WBSElement, id string) (string, error) {
	if loaded != nil {
		return loaded.WBSNumber, nil
	}
	var elem models.WBSElement
	if err := db.Select("wbs_number").Where("id = ?", id).First(&elem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("workpackage: blocker %s: %w", id, errs.ErrNotFound)
		}
		return "", fmt.Errorf("workpackage: get blocker %s: %w", id, err)
	}
	return elem.WBSNumber, nil
}
