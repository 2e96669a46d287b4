// Package perm implements role-based permission checks.
package perm

import (
	"errors"
	"fmt"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"gorm.io/gorm"
)

// roleRank orders roles from least to most privileged.
var roleRank = map[string]int{
	models.RoleGuest:      0,
	models.RoleMember:     1,
	models.RoleLeadership: 2,
	models.RoleHead:       3,
	models.RoleAdmin:      4,
}

// Rank returns the privilege rank of a role, or -1 for unknown roles.
func Rank(role string) int {
	r, ok := roleRank[role]
	if !ok {
		return -1
	}
	return r
}

// AtLeast reports whether role has at least the privilege of min.
func AtLeast(role, min string) bool {
	r, m := Rank(role), Rank(min)
	return r >= 0 && m >= 0 && r >= m
}

// GetUser loads a user by ID, wrapping missing rows as ErrNotFound.
func GetUser(db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("perm: user %s: %w", userID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("perm: get user %s: %w", userID, err)
	}
	return &user, nil
}

// RequireAtLeast loads userID and fails with ErrAccessDenied unless the
// user's role has at least the privilege of min.
func RequireAtLeast(db *gorm.DB, userID, min string) (*models.User, error) {
	user, err := GetUser(db, userID)
	if err != nil {
		return nil, err
	}
	if !AtLeast(user.Role, min) {
		return nil, fmt.Errorf("perm: user %s has role %s, needs at least %s: %w",
			userID, user.Role, min, errs.ErrAccessDenied)
	}
	return user, nil
}
