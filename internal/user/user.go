// Package user manages organization members and their roles.
package user

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/crewplanhq/crewplan/internal/change"
	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/perm"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for registering a member.
type CreateOpts struct {
	FirstName string
	LastName  string
	Email     string
	Role      string // defaults to GUEST
	SlackID   string
	DiscordID string
	TeamID    *string
}

// ListFilters holds optional filters for listing members.
type ListFilters struct {
	Role   string
	TeamID string
}

// Create registers a new member. New members start as guests unless a
// role is given.
func Create(db *gorm.DB, opts CreateOpts) (*models.User, error) {
	if opts.FirstName == "" || opts.LastName == "" {
		return nil, fmt.Errorf("user: first and last name are required: %w", errs.ErrValidation)
	}
	if _, err := mail.ParseAddress(opts.Email); err != nil {
		return nil, fmt.Errorf("user: invalid email %q: %w", opts.Email, errs.ErrValidation)
	}
	if opts.Role == "" {
		opts.Role = models.RoleGuest
	}
	if perm.Rank(opts.Role) < 0 {
		return nil, fmt.Errorf("user: unknown role %q: %w", opts.Role, errs.ErrValidation)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", opts.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user: check email: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user: email %q already registered: %w", opts.Email, errs.ErrValidation)
	}

	if opts.TeamID != nil {
		var team models.Team
		if err := db.Where("id = ?", *opts.TeamID).First(&team).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("user: team %s: %w", *opts.TeamID, errs.ErrNotFound)
			}
			return nil, fmt.Errorf("user: get team %s: %w", *opts.TeamID, err)
		}
	}

	id, err := change.GenerateUniqueID(db, "usr", &models.User{})
	if err != nil {
		return nil, err
	}

	u := models.User{
		ID:        id,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		Email:     opts.Email,
		Role:      opts.Role,
		SlackID:   opts.SlackID,
		DiscordID: opts.DiscordID,
		TeamID:    opts.TeamID,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return &u, nil
}

// Get retrieves a member by ID with their team.
func Get(db *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := db.Preload("Team").Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("user: get %s: %w", id, err)
	}
	return &u, nil
}

// List returns members matching the filters, ordered by last name.
func List(db *gorm.DB, filters ListFilters) ([]models.User, error) {
	q := db.Model(&models.User{})

	if filters.Role != "" {
		q = q.Where("role = ?", filters.Role)
	}
	if filters.TeamID != "" {
		q = q.Where("team_id = ?", filters.TeamID)
	}

	var users []models.User
	if err := q.Order("last_name, first_name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return users, nil
}

// SetRole changes a member's role. Only admins assign roles, and an
// admin cannot demote themselves.
func SetRole(db *gorm.DB, actorID, userID, role string) error {
	if _, err := perm.RequireAtLeast(db, actorID, models.RoleAdmin); err != nil {
		return err
	}
	if perm.Rank(role) < 0 {
		return fmt.Errorf("user: unknown role %q: %w", role, errs.ErrValidation)
	}
	if actorID == userID && role != models.RoleAdmin {
		return fmt.Errorf("user: admins cannot demote themselves: %w", errs.ErrValidation)
	}
	if _, err := Get(db, userID); err != nil {
		return err
	}
	if err := db.Model(&models.User{}).Where("id = ?", userID).Update("role", role).Error; err != nil {
		return fmt.Errorf("user: update role %s: %w", userID, err)
	}
	return nil
}
