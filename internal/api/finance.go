package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/crewplanhq/crewplan/internal/materials"
	"github.com/crewplanhq/crewplan/internal/reimbursement"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createReimbursementRequest struct {
	RecipientID   string `json:"recipient_id" binding:"required"`
	Amount        int    `json:"amount" binding:"required"`
	Vendor        string `json:"vendor" binding:"required"`
	Account       string `json:"account"`
	DateOfExpense string `json:"date_of_expense"`
}

func handleCreateReimbursement(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createReimbursementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		date, err := parseDate("date_of_expense", req.DateOfExpense)
		if err != nil {
			fail(c, err)
			return
		}
		r, err := reimbursement.Create(db, reimbursement.CreateOpts{
			RecipientID:   req.RecipientID,
			Amount:        req.Amount,
			Vendor:        req.Vendor,
			Account:       req.Account,
			DateOfExpense: date,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func handleListReimbursements(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rs, err := reimbursement.List(db, reimbursement.ListFilters{
			RecipientID: c.Query("recipient_id"),
			Status:      c.Query("status"),
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rs)
	}
}

func handleGetReimbursement(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := reimbursement.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

type statusRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

func handleReimbursementStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := reimbursement.SetStatus(db, req.ActorID, c.Param("id"), req.Status); err != nil {
			fail(c, err)
			return
		}
		r, err := reimbursement.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

type addMaterialRequest struct {
	CreatorID     string `json:"creator_id" binding:"required"`
	WorkPackageID uint   `json:"work_package_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int    `json:"unit_price"`
	Link          string `json:"link"`
}

func handleAddMaterial(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addMaterialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		m, err := materials.Add(db, materials.AddOpts{
			CreatorID:     req.CreatorID,
			WorkPackageID: req.WorkPackageID,
			Name:          req.Name,
			Quantity:      req.Quantity,
			UnitPrice:     req.UnitPrice,
			Link:          req.Link,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func handleGetMaterial(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := materials.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func handleListMaterials(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			fail(c, fmt.Errorf("api: work package id: %v: %w", err, errs.ErrValidation))
			return
		}
		ms, err := materials.ListForWorkPackage(db, uint(id))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, ms)
	}
}

func handleMaterialStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := materials.SetStatus(db, req.ActorID, c.Param("id"), req.Status); err != nil {
			fail(c, err)
			return
		}
		m, err := materials.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func handleRemoveMaterial(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.Query("actor_id")
		if actorID == "" {
			fail(c, fmt.Errorf("api: actor_id is required: %w", errs.ErrValidation))
			return
		}
		if err := materials.Remove(db, actorID, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
