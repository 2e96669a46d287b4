package api

import (
	"net/http"

	"github.com/crewplanhq/crewplan/internal/user"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createUserRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     string  `json:"email" binding:"required"`
	Role      string  `json:"role"`
	SlackID   string  `json:"slack_id"`
	DiscordID string  `json:"discord_id"`
	TeamID    *string `json:"team_id"`
}

func handleCreateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		u, err := user.Create(db, user.CreateOpts{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Role:      req.Role,
			SlackID:   req.SlackID,
			DiscordID: req.DiscordID,
			TeamID:    req.TeamID,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func handleListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := user.List(db, user.ListFilters{
			Role:   c.Query("role"),
			TeamID: c.Query("team_id"),
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func handleGetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := user.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

type setRoleRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Role    string `json:"role" binding:"required"`
}

func handleSetUserRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := user.SetRole(db, req.ActorID, c.Param("id"), req.Role); err != nil {
			fail(c, err)
			return
		}
		u, err := user.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
