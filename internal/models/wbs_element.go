package models

import "time"

// WBS element statuses.
const (
	WBSInactive = "INACTIVE"
	WBSActive   = "ACTIVE"
	WBSComplete = "COMPLETE"
)

// Description bullet kinds.
const (
	BulletGoal             = "GOAL"
	BulletFeature          = "FEATURE"
	BulletExpectedActivity = "EXPECTED_ACTIVITY"
	BulletDeliverable      = "DELIVERABLE"
)

// WBSElement is a node in the work breakdown structure. Exactly one of
// Project or WorkPackage is set, matching the WBS number: a zero
// work-package part means the element is a project.
type WBSElement struct {
	ID        string  `gorm:"primaryKey;size:32"`
	WBSNumber string  `gorm:"size:16;not null;uniqueIndex"`
	Name      string  `gorm:"size:256;not null"`
	Status    string  `gorm:"size:16;default:INACTIVE;index"`
	LeadID    *string `gorm:"size:32"`
	ManagerID *string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lead        *User        `gorm:"foreignKey:LeadID"`
	Manager     *User        `gorm:"foreignKey:ManagerID"`
	Project     *Project     `gorm:"foreignKey:WBSElementID"`
	WorkPackage *WorkPackage `gorm:"foreignKey:WBSElementID"`
}

// Project holds project-level detail for a WBS element. Budget is in cents.
type Project struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"`
	WBSElementID string  `gorm:"size:32;uniqueIndex;not null"`
	TeamID       *string `gorm:"size:32"`
	Budget       int     `gorm:"default:0"`
	Summary      string  `gorm:"type:text"`

	Team         *Team         `gorm:"foreignKey:TeamID"`
	WorkPackages []WorkPackage `gorm:"foreignKey:ProjectID"`
}

// WorkPackage holds work-package detail for a WBS element. Duration is in
// weeks.
type WorkPackage struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	WBSElementID string    `gorm:"size:32;uniqueIndex;not null"`
	ProjectID    uint      `gorm:"index;not null"`
	OrderIndex   int       `gorm:"default:0"`
	StartDate    time.Time
	Duration     int `gorm:"default:1"`

	Project   *Project      `gorm:"foreignKey:ProjectID"`
	BlockedBy []BlockedLink `gorm:"foreignKey:WorkPackageID"`
}

// DescriptionBullet is one entry in an element's editable lists: project
// goals and features, work-package expected activities and deliverables.
// Kind implies the owning table (GOAL/FEATURE rows belong to a Project,
// EXPECTED_ACTIVITY/DELIVERABLE rows to a WorkPackage), so OwnerID is
// unambiguous. Checked only applies to the work-package kinds.
type DescriptionBullet struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint    `gorm:"index:idx_bullet_owner;not null"`
	Kind        string  `gorm:"size:24;index:idx_bullet_owner;not null"`
	Detail      string  `gorm:"type:text;not null"`
	Checked     bool    `gorm:"default:false"`
	CheckedByID *string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	CheckedBy *User `gorm:"foreignKey:CheckedByID"`
}

// BlockedLink records that a work package is blocked by another WBS element.
type BlockedLink struct {
	WorkPackageID uint   `gorm:"primaryKey"`
	BlockerID     string `gorm:"primaryKey;size:32"`

	Blocker *WBSElement `gorm:"foreignKey:BlockerID"`
}
