// Package materials provides bill-of-materials tracking for work
// packages.
package materials

import (
	"errors"
	"fmt"
	"slices"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/perm"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidTransitions maps each material status to its valid next statuses.
// Unordering is allowed as long as nothing has shipped.
var ValidTransitions = map[string][]string{
	models.MaterialUnordered: {models.MaterialOrdered},
	models.MaterialOrdered:   {models.MaterialShipped, models.MaterialUnordered},
	models.MaterialShipped:   {models.MaterialReceived},
}

// AddOpts holds parameters for adding a bill-of-materials line.
type AddOpts struct {
	CreatorID     string
	WorkPackageID uint
	Name          string
	Quantity      int
	UnitPrice     int // cents
	Link          string
}

// Add appends a material line to a work package's bill of materials.
func Add(db *gorm.DB, opts AddOpts) (*models.Material, error) {
	if _, err := perm.RequireAtLeast(db, opts.CreatorID, models.RoleMember); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("materials: name is required: %w", errs.ErrValidation)
	}
	if opts.Quantity < 1 {
		return nil, fmt.Errorf("materials: quantity must be at least 1: %w", errs.ErrValidation)
	}
	var count int64
	if err := db.Model(&models.WorkPackage{}).Where("id = ?", opts.WorkPackageID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("materials: check work package: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("materials: work package %d: %w", opts.WorkPackageID, errs.ErrNotFound)
	}

	m := models.Material{
		ID:            uuid.NewString(),
		WorkPackageID: opts.WorkPackageID,
		CreatorID:     opts.CreatorID,
		Name:          opts.Name,
		Quantity:      opts.Quantity,
		UnitPrice:     opts.UnitPrice,
		Link:          opts.Link,
		Status:        models.MaterialUnordered,
	}
	if err := db.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("materials: create: %w", err)
	}
	return &m, nil
}

// Get retrieves a material line by ID.
func Get(db *gorm.DB, id string) (*models.Material, error) {
	var m models.Material
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("materials: %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("materials: get %s: %w", id, err)
	}
	return &m, nil
}

// ListForWorkPackage returns a work package's bill of materials, oldest
// first.
func ListForWorkPackage(db *gorm.DB, workPackageID uint) ([]models.Material, error) {
	var ms []models.Material
	if err := db.Where("work_package_id = ?", workPackageID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("materials: list for work package %d: %w", workPackageID, err)
	}
	return ms, nil
}

// SetStatus moves a material line through the ordering pipeline.
// Leadership and above track orders.
func SetStatus(db *gorm.DB, actorID, id, status string) error {
	if _, err := perm.RequireAtLeast(db, actorID, models.RoleLeadership); err != nil {
		return err
	}
	m, err := Get(db, id)
	if err != nil {
		return err
	}
	if !slices.Contains(ValidTransitions[m.Status], status) {
		return fmt.Errorf("materials: invalid status transition from %q to %q: %w", m.Status, status, errs.ErrValidation)
	}
	if err := db.Model(&models.Material{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("materials: update %s: %w", id, err)
	}
	return nil
}

// Remove deletes a material line. Only unordered lines can be removed.
func Remove(db *gorm.DB, actorID, id string) error {
	if _, err := perm.RequireAtLeast(db, actorID, models.RoleLeadership); err != nil {
		return err
	}
	m, err := Get(db, id)
	if err != nil {
		return err
	}
	if m.Status != models.MaterialUnordered {
		return fmt.Errorf("materials: %s has been ordered and cannot be removed: %w", id, errs.ErrValidation)
	}
	if err := db.Delete(&models.Material{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("materials: delete %s: %w", id, err)
	}
	return nil
}
