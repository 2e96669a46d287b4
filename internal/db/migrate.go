package db

import (
	"fmt"

	"github.com/crewplanhq/crewplan/internal/config"
	"github.com/crewplanhq/crewplan/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Team{},
		&models.WBSElement{},
		&models.Project{},
		&models.WorkPackage{},
		&models.DescriptionBullet{},
		&models.BlockedLink{},
		&models.ChangeRequest{},
		&models.ScopeDetail{},
		&models.ChangeRequestReason{},
		&models.ProposedSolution{},
		&models.StageGateDetail{},
		&models.ActivationDetail{},
		&models.ChangeRecord{},
		&models.Reimbursement{},
		&models.Material{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedTeams upserts Team rows from configuration, keyed by name.
func SeedTeams(db *gorm.DB, teams []config.TeamConfig) error {
	for _, tc := range teams {
		team := models.Team{
			ID:             "team-" + tc.Slug,
			Name:           tc.Name,
			SlackChannel:   tc.SlackChannel,
			DiscordChannel: tc.DiscordChannel,
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"slack_channel", "discord_channel"}),
		}).Create(&team)
		if result.Error != nil {
			return fmt.Errorf("db: seed team %q: %w", tc.Name, result.Error)
		}
	}
	return nil
}
