package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/crewplanhq/crewplan/internal/change"
	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/models"
	"github.com/crewplanhq/crewplan/internal/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type reasonRequest struct {
	Type    string `json:"type" binding:"required"`
	Explain string `json:"explain"`
}

// createCRRequest carries every per-type field; the handler dispatches on
// Type.
type createCRRequest struct {
	SubmitterID  string `json:"submitter_id" binding:"required"`
	WBSElementID string `json:"wbs_element_id" binding:"required"`
	Type         string `json:"type" binding:"required"`

	// STANDARD / SCOPE
	What           string          `json:"what"`
	ScopeImpact    string          `json:"scope_impact"`
	TimelineImpact int             `json:"timeline_impact"`
	BudgetImpact   int             `json:"budget_impact"`
	Reasons        []reasonRequest `json:"reasons"`

	// STAGE_GATE
	LeftoverBudget int  `json:"leftover_budget"`
	ConfirmDone    bool `json:"confirm_done"`

	// ACTIVATION
	LeadID         string `json:"lead_id"`
	ManagerID      string `json:"manager_id"`
	StartDate      string `json:"start_date"` // 2006-01-02
	ConfirmDetails bool   `json:"confirm_details"`
}

func handleCreateChangeRequest(db *gorm.DB, dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		var cr *models.ChangeRequest
		var err error
		switch req.Type {
		case models.CRStandard, models.CRScope:
			reasons := make([]change.ReasonOpt, 0, len(req.Reasons))
			for _, r := range req.Reasons {
				reasons = append(reasons, change.ReasonOpt{Type: r.Type, Explain: r.Explain})
			}
			cr, err = change.CreateScoped(db, dispatcher, change.ScopedOpts{
				SubmitterID:    req.SubmitterID,
				WBSElementID:   req.WBSElementID,
				Type:           req.Type,
				What:           req.What,
				ScopeImpact:    req.ScopeImpact,
				TimelineImpact: req.TimelineImpact,
				BudgetImpact:   req.BudgetImpact,
				Reasons:        reasons,
			})
		case models.CRStageGate:
			cr, err = change.CreateStageGate(db, dispatcher, change.StageGateOpts{
				SubmitterID:    req.SubmitterID,
				WBSElementID:   req.WBSElementID,
				LeftoverBudget: req.LeftoverBudget,
				ConfirmDone:    req.ConfirmDone,
			})
		case models.CRActivation:
			var start time.Time
			if req.StartDate != "" {
				start, err = time.Parse("2006-01-02", req.StartDate)
				if err != nil {
					fail(c, fmt.Errorf("api: start_date: %v: %w", err, errs.ErrValidation))
					return
				}
			}
			cr, err = change.CreateActivation(db, dispatcher, change.ActivationOpts{
				SubmitterID:    req.SubmitterID,
				WBSElementID:   req.WBSElementID,
				LeadID:         req.LeadID,
				ManagerID:      req.ManagerID,
				StartDate:      start,
				ConfirmDetails: req.ConfirmDetails,
			})
		default:
			err = fmt.Errorf("api: unknown change request type %q: %w", req.Type, errs.ErrValidation)
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, cr)
	}
}

func handleListChangeRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := change.ListFilters{
			WBSElementID: c.Query("wbs_element_id"),
			SubmitterID:  c.Query("submitter_id"),
			Type:         c.Query("type"),
			Pending:      c.Query("pending") == "true",
		}
		crs, err := change.List(db, filters)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, crs)
	}
}

func handleGetChangeRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cr, err := change.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, cr)
	}
}

type reviewRequest struct {
	ReviewerID         string `json:"reviewer_id" binding:"required"`
	Accepted           *bool  `json:"accepted" binding:"required"`
	Notes              string `json:"notes"`
	ProposedSolutionID string `json:"proposed_solution_id"`
}

func handleReviewChangeRequest(db *gorm.DB, dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		_, err := change.Review(db, dispatcher, c.Param("id"), change.ReviewOpts{
			ReviewerID:         req.ReviewerID,
			Notes:              req.Notes,
			Accepted:           *req.Accepted,
			ProposedSolutionID: req.ProposedSolutionID,
		})
		if err != nil {
			fail(c, err)
			return
		}
		cr, err := change.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, cr)
	}
}

type solutionRequest struct {
	CreatorID      string `json:"creator_id" binding:"required"`
	Description    string `json:"description" binding:"required"`
	ScopeImpact    string `json:"scope_impact"`
	TimelineImpact int    `json:"timeline_impact"`
	BudgetImpact   int    `json:"budget_impact"`
}

func handleProposeSolution(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req solutionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		sol, err := change.ProposeSolution(db, c.Param("id"), change.SolutionOpts{
			CreatorID:      req.CreatorID,
			Description:    req.Description,
			ScopeImpact:    req.ScopeImpact,
			TimelineImpact: req.TimelineImpact,
			BudgetImpact:   req.BudgetImpact,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, sol)
	}
}
