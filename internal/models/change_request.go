package models

import "time"

// Change request types.
const (
	CRStandard   = "STANDARD"
	CRScope      = "SCOPE"
	CRStageGate  = "STAGE_GATE"
	CRActivation = "ACTIVATION"
)

// Change request reason categories.
const (
	ReasonEstimation    = "ESTIMATION"
	ReasonSchool        = "SCHOOL"
	ReasonDesign        = "DESIGN"
	ReasonManufacturing = "MANUFACTURING"
	ReasonRules         = "RULES"
	ReasonOtherProject  = "OTHER_PROJECT"
	ReasonOther         = "OTHER"
)

// ChangeRequest is a proposal to modify a project or work package.
// Accepted is tri-state: nil while the request is pending, then set
// exactly once by review. ReviewerID and DateReviewed are set in the
// same transition and never change afterwards.
type ChangeRequest struct {
	ID           string  `gorm:"primaryKey;size:32"`
	SubmitterID  string  `gorm:"size:32;not null;index"`
	WBSElementID string  `gorm:"size:32;not null;index"`
	Type         string  `gorm:"size:16;not null;index"`
	Accepted     *bool   `gorm:"index"`
	ReviewerID   *string `gorm:"size:32"`
	ReviewNotes  string  `gorm:"type:text"`
	DateReviewed *time.Time
	CreatedAt    time.Time

	Submitter  *User             `gorm:"foreignKey:SubmitterID"`
	Reviewer   *User             `gorm:"foreignKey:ReviewerID"`
	WBSElement *WBSElement       `gorm:"foreignKey:WBSElementID"`
	Scope      *ScopeDetail      `gorm:"foreignKey:ChangeRequestID"`
	StageGate  *StageGateDetail  `gorm:"foreignKey:ChangeRequestID"`
	Activation *ActivationDetail `gorm:"foreignKey:ChangeRequestID"`
	Records    []ChangeRecord    `gorm:"foreignKey:ChangeRequestID"`
}

// ScopeDetail carries the shared detail row for STANDARD and SCOPE
// requests: the rationale, categorized reasons, impact estimates, and
// candidate solutions. Impacts are weeks and cents.
type ScopeDetail struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ChangeRequestID string `gorm:"size:32;uniqueIndex;not null"`
	What            string `gorm:"type:text;not null"`
	ScopeImpact     string `gorm:"type:text"`
	TimelineImpact  int
	BudgetImpact    int

	Reasons   []ChangeRequestReason `gorm:"foreignKey:ScopeDetailID"`
	Solutions []ProposedSolution    `gorm:"foreignKey:ChangeRequestID;references:ChangeRequestID"`
}

// ChangeRequestReason is one categorized "why" entry on a scope detail.
type ChangeRequestReason struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ScopeDetailID uint   `gorm:"index;not null"`
	Type          string `gorm:"size:16;not null"`
	Explain       string `gorm:"type:text"`
}

// ProposedSolution is a candidate remediation attached to a pending
// standard/scope request. At most one solution per request ever becomes
// approved, and only as part of an accepting review.
type ProposedSolution struct {
	ID              string `gorm:"primaryKey;size:32"`
	ChangeRequestID string `gorm:"size:32;not null;index"`
	CreatorID       string `gorm:"size:32;not null"`
	Description     string `gorm:"type:text;not null"`
	ScopeImpact     string `gorm:"type:text"`
	TimelineImpact  int
	BudgetImpact    int
	Approved        bool `gorm:"default:false"`
	CreatedAt       time.Time

	Creator *User `gorm:"foreignKey:CreatorID"`
}

// StageGateDetail carries stage-gate request fields. LeftoverBudget is in
// cents.
type StageGateDetail struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ChangeRequestID string `gorm:"size:32;uniqueIndex;not null"`
	LeftoverBudget  int
	ConfirmDone     bool
}

// ActivationDetail carries activation request fields: the leadership and
// start date the element should take on when the request is accepted.
type ActivationDetail struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ChangeRequestID string `gorm:"size:32;uniqueIndex;not null"`
	LeadID          string `gorm:"size:32;not null"`
	ManagerID       string `gorm:"size:32;not null"`
	StartDate       time.Time
	ConfirmDetails  bool

	Lead    *User `gorm:"foreignKey:LeadID"`
	Manager *User `gorm:"foreignKey:ManagerID"`
}

// ChangeRecord is one immutable audit entry describing a single field- or
// list-level mutation applied on behalf of a change request. Rows are
// only ever inserted.
type ChangeRecord struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ChangeRequestID string `gorm:"size:32;not null;index"`
	ImplementerID   string `gorm:"size:32;not null"`
	WBSElementID    string `gorm:"size:32;not null;index"`
	Detail          string `gorm:"type:text;not null"`
	CreatedAt       time.Time

	Implementer *User `gorm:"foreignKey:ImplementerID"`
}
