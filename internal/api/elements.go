package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crewplanhq/crewplan/internal/change"
	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/project"
	"github.com/crewplanhq/crewplan/internal/workpackage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type bulletRequest struct {
	ID     uint   `json:"id"` // zero for a freshly added bullet
	Detail string `json:"detail" binding:"required"`
}

func bulletInputs(reqs []bulletRequest) []change.BulletInput {
	inputs := make([]change.BulletInput, 0, len(reqs))
	for _, r := range reqs {
		inputs = append(inputs, change.BulletInput{ID: r.ID, Detail: r.Detail})
	}
	return inputs
}

// parseDate parses a 2006-01-02 date, wrapping failures as validation
// errors.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("api: %s: %v: %w", field, err, errs.ErrValidation)
	}
	return t, nil
}

type createProjectRequest struct {
	CreatorID string   `json:"creator_id" binding:"required"`
	WBSNumber string   `json:"wbs_number" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	TeamID    string   `json:"team_id"`
	Budget    int      `json:"budget"`
	Summary   string   `json:"summary"`
	LeadID    string   `json:"lead_id"`
	ManagerID string   `json:"manager_id"`
	Goals     []string `json:"goals"`
	Features  []string `json:"features"`
}

func handleCreateProject(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		elem, err := project.Create(db, project.CreateOpts{
			CreatorID: req.CreatorID,
			WBSNumber: req.WBSNumber,
			Name:      req.Name,
			TeamID:    req.TeamID,
			Budget:    req.Budget,
			Summary:   req.Summary,
			LeadID:    req.LeadID,
			ManagerID: req.ManagerID,
			Goals:     req.Goals,
			Features:  req.Features,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, elem)
	}
}

func handleListProjects(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		elems, err := project.List(db, project.ListFilters{
			Status: c.Query("status"),
			TeamID: c.Query("team_id"),
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, elems)
	}
}

func handleGetProject(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := project.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

type editProjectRequest struct {
	EditorID        string          `json:"editor_id" binding:"required"`
	ChangeRequestID string          `json:"change_request_id" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Budget          int             `json:"budget"`
	Summary         string          `json:"summary"`
	Goals           []bulletRequest `json:"goals"`
	Features        []bulletRequest `json:"features"`
}

func handleEditProject(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req editProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		err := project.Edit(db, c.Param("id"), project.EditOpts{
			EditorID:        req.EditorID,
			ChangeRequestID: req.ChangeRequestID,
			Name:            req.Name,
			Budget:          req.Budget,
			Summary:         req.Summary,
			Goals:           bulletInputs(req.Goals),
			Features:        bulletInputs(req.Features),
		})
		if err != nil {
			fail(c, err)
			return
		}
		detail, err := project.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

type createWorkPackageRequest struct {
	CreatorID        string   `json:"creator_id" binding:"required"`
	ProjectElementID string   `json:"project_element_id" binding:"required"`
	Name             string   `json:"name" binding:"required"`
	StartDate        string   `json:"start_date"`
	Duration         int      `json:"duration"`
	Activities       []string `json:"activities"`
	Deliverables     []string `json:"deliverables"`
	BlockedBy        []string `json:"blocked_by"`
}

func handleCreateWorkPackage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createWorkPackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		start, err := parseDate("start_date", req.StartDate)
		if err != nil {
			fail(c, err)
			return
		}
		elem, err := workpackage.Create(db, workpackage.CreateOpts{
			CreatorID:        req.CreatorID,
			ProjectElementID: req.ProjectElementID,
			Name:             req.Name,
			StartDate:        start,
			Duration:         req.Duration,
			Activities:       req.Activities,
			Deliverables:     req.Deliverables,
			BlockedBy:        req.BlockedBy,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, elem)
	}
}

func handleListWorkPackages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters workpackage.ListFilters
		if pid := c.Query("project_id"); pid != "" {
			n, err := strconv.ParseUint(pid, 10, 32)
			if err != nil {
				fail(c, fmt.Errorf("api: project_id: %v: %w", err, errs.ErrValidation))
				return
			}
			filters.ProjectID = uint(n)
		}
		filters.Status = c.Query("status")

		elems, err := workpackage.List(db, filters)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, elems)
	}
}

func handleGetWorkPackage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := workpackage.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

type editWorkPackageRequest struct {
	EditorID        string          `json:"editor_id" binding:"required"`
	ChangeRequestID string          `json:"change_request_id" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	StartDate       string          `json:"start_date"`
	Duration        int             `json:"duration"`
	Activities      []bulletRequest `json:"activities"`
	Deliverables    []bulletRequest `json:"deliverables"`
	BlockedBy       []string        `json:"blocked_by"`
}

func handleEditWorkPackage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req editWorkPackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		start, err := parseDate("start_date", req.StartDate)
		if err != nil {
			fail(c, err)
			return
		}
		err = workpackage.Edit(db, c.Param("id"), workpackage.EditOpts{
			EditorID:        req.EditorID,
			ChangeRequestID: req.ChangeRequestID,
			Name:            req.Name,
			StartDate:       start,
			Duration:        req.Duration,
			Activities:      bulletInputs(req.Activities),
			Deliverables:    bulletInputs(req.Deliverables),
			BlockedBy:       req.BlockedBy,
		})
		if err != nil {
			fail(c, err)
			return
		}
		detail, err := workpackage.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

type checkBulletRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Checked *bool  `json:"checked" binding:"required"`
}

func handleCheckBullet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkBulletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			fail(c, fmt.Errorf("api: bullet id: %v: %w", err, errs.ErrValidation))
			return
		}
		if err := workpackage.CheckBullet(db, req.UserID, uint(id), *req.Checked); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checked": *req.Checked})
	}
}
