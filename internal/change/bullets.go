package change

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"gorm.io/gorm"
)

// BulletInput is one submitted entry for an editable bullet list. A zero
// ID means the bullet is freshly created.
type BulletInput struct {
	ID     uint
	Detail string
}

// BulletItems converts persisted bullets into differ items keyed by row ID.
func BulletItems(bullets []models.DescriptionBullet) []ListItem[models.DescriptionBullet] {
	items := make([]ListItem[models.DescriptionBullet], 0, len(bullets))
	for _, b := range bullets {
		items = append(items, ListItem[models.DescriptionBullet]{
			Element: b,
			Key:     strconv.FormatUint(uint64(b.ID), 10),
			Display: b.Detail,
		})
	}
	return items
}

// InputItems converts submitted bullet inputs into differ items. Inputs
// without an ID get an empty key, so the differ always treats them as
// additions.
func InputItems(inputs []BulletInput, ownerID uint, kind string) []ListItem[models.DescriptionBullet] {
	items := make([]ListItem[models.DescriptionBullet], 0, len(inputs))
	for _, in := range inputs {
		key := ""
		if in.ID != 0 {
			key = strconv.FormatUint(uint64(in.ID), 10)
		}
		items = append(items, ListItem[models.DescriptionBullet]{
			Element: models.DescriptionBullet{
				ID:      in.ID,
				OwnerID: ownerID,
				Kind:    kind,
				Detail:  in.Detail,
			},
			Key:     key,
			Display: in.Detail,
		})
	}
	return items
}

// ApplyBulletDiff persists a bullet diff: removed rows are deleted, added
// rows created, edited rows updated in place.
func ApplyBulletDiff(tx *gorm.DB, d ListDiff[models.DescriptionBullet]) error {
	for _, b := range d.Removed {
		if err := tx.Delete(&models.DescriptionBullet{}, "id = ?", b.ID).Error; err != nil {
			return fmt.Errorf("change: delete bullet %d: %w", b.ID, err)
		}
	}
	for _, b := range d.Added {
		b.ID = 0
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("change: create bullet: %w", err)
		}
	}
	for _, b := range d.Edited {
		if err := tx.Model(&models.DescriptionBullet{}).Where("id = ?", b.ID).Update("detail", b.Detail).Error; err != nil {
			return fmt.Errorf("change: update bullet %d: %w", b.ID, err)
		}
	}
	return nil
}

// LoadBullets returns the bullets of one kind for an owning row, oldest
// first.
func LoadBullets(db *gorm.DB, ownerID uint, kind string) ([]models.DescriptionBullet, error) {
	var bullets []models.DescriptionBullet
	if err := db.Where("owner_id = ? AND kind = ?", ownerID, kind).Order("id ASC").Find(&bullets).Error; err != nil {
		return nil, fmt.Errorf("change: load %s bullets: %w", kind, err)
	}
	return bullets, nil
}

// RequireAccepted loads a change request and confirms it was accepted and
// targets the given WBS element. Audited edits call this before touching
// anything.
func RequireAccepted(db *gorm.DB, crID, wbsElementID string) (*models.ChangeRequest, error) {
	var cr models.ChangeRequest
	if err := db.Where("id = ?", crID).First(&cr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("change: request %s: %w", crID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("change: get request %s: %w", crID, err)
	}
	if cr.WBSElementID != wbsElementID {
		return nil, fmt.Errorf("change: request %s targets element %s, not %s: %w", crID, cr.WBSElementID, wbsElementID, errs.ErrValidation)
	}
	if cr.Accepted == nil || !*cr.Accepted {
		return nil, fmt.Errorf("change: request %s has not been accepted: %w", crID, errs.ErrValidation)
	}
	return &cr, nil
}

// AppendRecords writes one change record per detail line against the
// given request.
func AppendRecords(tx *gorm.DB, cr *models.ChangeRequest, implementerID string, details []string) error {
	for _, detail := range details {
		rec := models.ChangeRecord{
			ChangeRequestID: cr.ID,
			ImplementerID:   implementerID,
			WBSElementID:    cr.WBSElementID,
			Detail:          detail,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("change: create record: %w", err)
		}
	}
	return nil
}
