package models

import "time"

// User roles, ordered from least to most privileged. Rank ordering lives
// in the perm package.
const (
	RoleGuest      = "GUEST"
	RoleMember     = "MEMBER"
	RoleLeadership = "LEADERSHIP"
	RoleHead       = "HEAD"
	RoleAdmin      = "ADMIN"
)

// User is an organization member.
type User struct {
	ID        string  `gorm:"primaryKey;size:32"`
	FirstName string  `gorm:"size:64;not null"`
	LastName  string  `gorm:"size:64;not null"`
	Email     string  `gorm:"size:128;uniqueIndex"`
	Role      string  `gorm:"size:16;default:GUEST"`
	SlackID   string  `gorm:"size:32"`
	DiscordID string  `gorm:"size:32"`
	TeamID    *string `gorm:"size:32"`
	CreatedAt time.Time

	Team *Team `gorm:"foreignKey:TeamID"`
}

// Team groups members under a head, with a chat channel for notifications.
type Team struct {
	ID             string `gorm:"primaryKey;size:32"`
	Name           string `gorm:"size:128;not null;uniqueIndex"`
	HeadID         string `gorm:"size:32"`
	SlackChannel   string `gorm:"size:32"`
	DiscordChannel string `gorm:"size:32"`
	CreatedAt      time.Time

	Head    *User  `gorm:"foreignKey:HeadID"`
	Members []User `gorm:"foreignKey:TeamID"`
}
