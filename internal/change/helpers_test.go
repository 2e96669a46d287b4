package change

import (
	"testing"
	"time"

	"github.com/crewplanhq/crewplan/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens an in-memory SQLite DB with every table the change
// engine touches.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.WBSElement{},
		&models.Project{},
		&models.WorkPackage{},
		&models.DescriptionBullet{},
		&models.ChangeRequest{},
		&models.ScopeDetail{},
		&models.ChangeRequestReason{},
		&models.ProposedSolution{},
		&models.StageGateDetail{},
		&models.ActivationDetail{},
		&models.ChangeRecord{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, role string) *models.User {
	t.Helper()
	u := models.User{
		ID:        id,
		FirstName: "Test",
		LastName:  id,
		Email:     id + "@example.edu",
		Role:      role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return &u
}

// seedProject creates a WBS element with a project detail row and returns
// both.
func seedProject(t *testing.T, db *gorm.DB, elemID, wbsNumber string, budget int) (*models.WBSElement, *models.Project) {
	t.Helper()
	elem := models.WBSElement{
		ID:        elemID,
		WBSNumber: wbsNumber,
		Name:      "Project " + wbsNumber,
		Status:    models.WBSActive,
	}
	if err := db.Create(&elem).Error; err != nil {
		t.Fatalf("seed element %s: %v", elemID, err)
	}
	project := models.Project{WBSElementID: elemID, Budget: budget}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project %s: %v", elemID, err)
	}
	return &elem, &project
}

// seedWorkPackage creates a WBS element with a work-package detail row
// under the given project.
func seedWorkPackage(t *testing.T, db *gorm.DB, elemID, wbsNumber string, projectID uint, duration int) (*models.WBSElement, *models.WorkPackage) {
	t.Helper()
	elem := models.WBSElement{
		ID:        elemID,
		WBSNumber: wbsNumber,
		Name:      "Work Package " + wbsNumber,
		Status:    models.WBSInactive,
	}
	if err := db.Create(&elem).Error; err != nil {
		t.Fatalf("seed element %s: %v", elemID, err)
	}
	wp := models.WorkPackage{
		WBSElementID: elemID,
		ProjectID:    projectID,
		StartDate:    time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Duration:     duration,
	}
	if err := db.Create(&wp).Error; err != nil {
		t.Fatalf("seed work package %s: %v", elemID, err)
	}
	return &elem, &wp
}

// seedPendingCR inserts a pending change request of the given type with
// its detail row.
func seedPendingCR(t *testing.T, db *gorm.DB, id, submitterID, elemID, crType string) *models.ChangeRequest {
	t.Helper()
	cr := models.ChangeRequest{
		ID:           id,
		SubmitterID:  submitterID,
		WBSElementID: elemID,
		Type:         crType,
	}
	if err := db.Create(&cr).Error; err != nil {
		t.Fatalf("seed change request %s: %v", id, err)
	}
	switch crType {
	case models.CRStandard, models.CRScope:
		detail := models.ScopeDetail{ChangeRequestID: id, What: "test change"}
		if err := db.Create(&detail).Error; err != nil {
			t.Fatalf("seed scope detail: %v", err)
		}
	case models.CRStageGate:
		detail := models.StageGateDetail{ChangeRequestID: id, ConfirmDone: true}
		if err := db.Create(&detail).Error; err != nil {
			t.Fatalf("seed stage gate detail: %v", err)
		}
	}
	return &cr
}

func seedSolution(t *testing.T, db *gorm.DB, id, crID, creatorID string, budgetImpact, timelineImpact int) *models.ProposedSolution {
	t.Helper()
	sol := models.ProposedSolution{
		ID:              id,
		ChangeRequestID: crID,
		CreatorID:       creatorID,
		Description:     "solution " + id,
		BudgetImpact:    budgetImpact,
		TimelineImpact:  timelineImpact,
	}
	if err := db.Create(&sol).Error; err != nil {
		t.Fatalf("seed solution %s: %v", id, err)
	}
	return &sol
}

func seedActivationDetail(t *testing.T, db *gorm.DB, crID, leadID, managerID string, start time.Time) {
	t.Helper()
	detail := models.ActivationDetail{
		ChangeRequestID: crID,
		LeadID:          leadID,
		ManagerID:       managerID,
		StartDate:       start,
		ConfirmDetails:  true,
	}
	if err := db.Create(&detail).Error; err != nil {
		t.Fatalf("seed activation detail: %v", err)
	}
}

func seedBullet(t *testing.T, db *gorm.DB, ownerID uint, kind, detail string, checked bool) *models.DescriptionBullet {
	t.Helper()
	b := models.DescriptionBullet{
		OwnerID: ownerID,
		Kind:    kind,
		Detail:  detail,
		Checked: checked,
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("seed bullet: %v", err)
	}
	return &b
}

func countRecords(t *testing.T, db *gorm.DB, crID string) int {
	t.Helper()
	var n int64
	if err := db.Model(&models.ChangeRecord{}).Where("change_request_id = ?", crID).Count(&n).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	return int(n)
}

func recordDetails(t *testing.T, db *gorm.DB, crID string) []string {
	t.Helper()
	var recs []models.ChangeRecord
	if err := db.Where("change_request_id = ?", crID).Order("id ASC").Find(&recs).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Detail
	}
	return out
}
