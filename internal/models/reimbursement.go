package models

import "time"

// Reimbursement accounts.
const (
	AccountCash   = "CASH"
	AccountBudget = "BUDGET"
)

// Reimbursement statuses.
const (
	ReimbursementPendingFinance  = "PENDING_FINANCE"
	ReimbursementSaboSubmitted   = "SABO_SUBMITTED"
	ReimbursementAdvisorApproved = "ADVISOR_APPROVED"
	ReimbursementReimbursed      = "REIMBURSED"
	ReimbursementDenied          = "DENIED"
)

// Reimbursement is a member's request to be paid back for an expense.
// Amount is in cents.
type Reimbursement struct {
	ID            string `gorm:"primaryKey;size:36"`
	RecipientID   string `gorm:"size:32;not null;index"`
	Amount        int    `gorm:"not null"`
	Vendor        string `gorm:"size:128;not null"`
	Account       string `gorm:"size:16;default:BUDGET"`
	Status        string `gorm:"size:24;default:PENDING_FINANCE;index"`
	DateOfExpense time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Recipient *User `gorm:"foreignKey:RecipientID"`
}

// Material statuses.
const (
	MaterialUnordered = "UNORDERED"
	MaterialOrdered   = "ORDERED"
	MaterialShipped   = "SHIPPED"
	MaterialReceived  = "RECEIVED"
)

// Material is one bill-of-materials line for a work package. UnitPrice is
// in cents.
type Material struct {
	ID            string `gorm:"primaryKey;size:36"`
	WorkPackageID uint   `gorm:"not null;index"`
	CreatorID     string `gorm:"size:32;not null"`
	Name          string `gorm:"size:256;not null"`
	Quantity      int    `gorm:"default:1"`
	UnitPrice     int    `gorm:"default:0"`
	Link          string `gorm:"size:512"`
	Status        string `gorm:"size:16;default:UNORDERED;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Creator *User `gorm:"foreignKey:CreatorID"`
}
