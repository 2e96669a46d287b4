// Package project provides project lifecycle operations: creation under a
// WBS number, listing, and audited edits driven by accepted change
// requests.
package project

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/crewplanhq/crewplan/internal/change"
	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/perm"
	"github.com/crewplanhq/crewplan/internal/wbs"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new project.
type CreateOpts struct {
	CreatorID string
	WBSNumber string // e.g. "1.2.0"
	Name      string
	TeamID    string
	Budget    int // cents
	Summary   string
	LeadID    string
	ManagerID string
	Goals     []string
	Features  []string
}

// Detail is a project with its editable bullet lists loaded.
type Detail struct {
	Element  models.WBSElement
	Goals    []models.DescriptionBullet
	Features []models.DescriptionBullet
}

// ListFilters holds optional filters for listing projects.
type ListFilters struct {
	Status string
	TeamID string
}

// Create creates a project WBS element with its detail row and initial
// goal/feature bullets. Only heads and above create projects.
func Create(db *gorm.DB, opts CreateOpts) (*models.WBSElement, error) {
	if _, err := perm.RequireAtLeast(db, opts.CreatorID, models.RoleHead); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("project: name is required: %w", errs.ErrValidation)
	}
	num, err := wbs.Parse(opts.WBSNumber)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	if !num.IsProject() {
		return nil, fmt.Errorf("project: %q has a non-zero work package part: %w", opts.WBSNumber, errs.ErrValidation)
	}

	var count int64
	if err := db.Model(&models.WBSElement{}).Where("wbs_number = ?", opts.WBSNumber).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("project: check wbs number: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("project: wbs number %s is taken: %w", opts.WBSNumber, errs.ErrValidation)
	}

	if opts.TeamID != "" {
		var teams int64
		if err := db.Model(&models.Team{}).Where("id = ?", opts.TeamID).Count(&teams).Error; err != nil {
			return nil, fmt.Errorf("project: check team: %w", err)
		}
		if teams == 0 {
			return nil, fmt.Errorf("project: team %s: %w", opts.TeamID, errs.ErrNotFound)
		}
	}
	for _, id := range []string{opts.LeadID, opts.ManagerID} {
		if id == "" {
			continue
		}
		if _, err := perm.GetUser(db, id); err != nil {
			return nil, err
		}
	}

	id, err := change.GenerateUniqueID(db, "wbs", &models.WBSElement{})
	if err != nil {
		return nil, err
	}
	elem := models.WBSElement{
		ID:        id,
		WBSNumber: opts.WBSNumber,
		Name:      opts.Name,
		Status:    models.WBSInactive,
	}
	if opts.LeadID != "" {
		elem.LeadID = &opts.LeadID
	}
	if opts.ManagerID != "" {
		elem.ManagerID = &opts.ManagerID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&elem).Error; err != nil {
			return fmt.Errorf("project: create element: %w", err)
		}
		proj := models.Project{
			WBSElementID: elem.ID,
			Budget:       opts.Budget,
			Summary:      opts.Summary,
		}
		if opts.TeamID != "" {
			proj.TeamID = &opts.TeamID
		}
		if err := tx.Create(&proj).Error; err != nil {
			return fmt.Errorf("project: create detail: %w", err)
		}
		for _, g := range opts.Goals {
			b := models.DescriptionBullet{OwnerID: proj.ID, Kind: models.BulletGoal, Detail: g}
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("project: create goal: %w", err)
			}
		}
		for _, f := range opts.Features {
			b := models.DescriptionBullet{OwnerID: proj.ID, Kind: models.BulletFeature, Detail: f}
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("project: create feature: %w", err)
			}
		}
		elem.Project = &proj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &elem, nil
}

// Get retrieves a project by element ID with its team, people, work
// packages, and bullet lists.
func Get(db *gorm.DB, id string) (*Detail, error) {
	var elem models.WBSElement
	err := db.
		Preload("Project").
		Preload("Project.Team").
		Preload("Project.WorkPackages").
		Preload("Lead").
		Preload("Manager").
		Where("id = ?", id).
		First(&elem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}
	if elem.Project == nil {
		return nil, fmt.Errorf("project: %s is not a project: %w", id, errs.ErrNotFound)
	}

	goals, err := change.LoadBullets(db, elem.Project.ID, models.BulletGoal)
	if err != nil {
		return nil, err
	}
	features, err := change.LoadBullets(db, elem.Project.ID, models.BulletFeature)
	if err != nil {
		return nil, err
	}
	return &Detail{Element: elem, Goals: goals, Features: features}, nil
}

// List returns project elements matching the filters, ordered by WBS
// number.
func List(db *gorm.DB, filters ListFilters) ([]models.WBSElement, error) {
	q := db.Model(&models.WBSElement{}).
		Joins("JOIN projects ON projects.wbs_element_id = wbs_elements.id").
		Preload("Project")

	if filters.Status != "" {
		q = q.Where("wbs_elements.status = ?", filters.Status)
	}
	if filters.TeamID != "" {
		q = q.Where("projects.team_id = ?", filters.TeamID)
	}

	var elems []models.WBSElement
	if err := q.Order("wbs_elements.wbs_number ASC").Find(&elems).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return elems, nil
}

// EditOpts holds the full replacement state for an audited project edit.
// Bullet inputs without an ID are treated as freshly added.
type EditOpts struct {
	EditorID        string
	ChangeRequestID string
	Name            string
	Budget          int
	Summary         string
	Goals           []change.BulletInput
	Features        []change.BulletInput
}

// Edit applies an audited edit to a project. The edit must cite an
// accepted change request targeting this element; every scalar change and
// every bullet addition, removal, or rewording lands as a change record
// against that request.
func Edit(db *gorm.DB, elementID string, opts EditOpts) error {
	if _, err := perm.RequireAtLeast(db, opts.EditorID, models.RoleLeadership); err != nil {
		return err
	}
	if opts.Name == "" {
		return fmt.Errorf("project: name is required: %w", errs.ErrValidation)
	}
	cur, err := Get(db, elementID)
	if err != nil {
		return err
	}
	cr, err := change.RequireAccepted(db, opts.ChangeRequestID, elementID)
	if err != nil {
		return err
	}
	proj := cur.Element.Project

	var details []string
	if d, ok := change.FieldChange("Name", cur.Element.Name, opts.Name); ok {
		details = append(details, d)
	}
	if d, ok := change.FieldChange("Budget", strconv.Itoa(proj.Budget), strconv.Itoa(opts.Budget)); ok {
		details = append(details, d)
	}
	if d, ok := change.FieldChange("Summary", proj.Summary, opts.Summary); ok {
		details = append(details, d)
	}
	goalDiff := change.DiffLists("Goal", change.BulletItems(cur.Goals), change.InputItems(opts.Goals, proj.ID, models.BulletGoal))
	featureDiff := change.DiffLists("Feature", change.BulletItems(cur.Features), change.InputItems(opts.Features, proj.ID, models.BulletFeature))
	details = append(details, goalDiff.Details...)
	details = append(details, featureDiff.Details...)
	if len(details) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WBSElement{}).Where("id = ?", elementID).Update("name", opts.Name).Error; err != nil {
			return fmt.Errorf("project: update element: %w", err)
		}
		updates := map[string]interface{}{
			"budget":  opts.Budget,
			"summary": opts.Summary,
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", proj.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("project: update detail: %w", err)
		}
		if err := change.ApplyBulletDiff(tx, goalDiff); err != nil {
			return err
		}
		if err := change.ApplyBulletDiff(tx, featureDiff); err != nil {
			return err
		}
		return change.AppendRecords(tx, cr, opts.EditorID, details)
	})
}
