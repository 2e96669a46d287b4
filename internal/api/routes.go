package api

import (
	"net/http"

	"github.com/crewplanhq/crewplan/internal/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up the /api/v1 surface on the gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, dispatcher *notify.Dispatcher) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", handleHealth(db))

	v1.POST("/users", handleCreateUser(db))
	v1.GET("/users", handleListUsers(db))
	v1.GET("/users/:id", handleGetUser(db))
	v1.PUT("/users/:id/role", handleSetUserRole(db))

	v1.POST("/change-requests", handleCreateChangeRequest(db, dispatcher))
	v1.GET("/change-requests", handleListChangeRequests(db))
	v1.GET("/change-requests/:id", handleGetChangeRequest(db))
	v1.POST("/change-requests/:id/review", handleReviewChangeRequest(db, dispatcher))
	v1.POST("/change-requests/:id/solutions", handleProposeSolution(db))

	v1.POST("/projects", handleCreateProject(db))
	v1.GET("/projects", handleListProjects(db))
	v1.GET("/projects/:id", handleGetProject(db))
	v1.PUT("/projects/:id", handleEditProject(db))

	v1.POST("/work-packages", handleCreateWorkPackage(db))
	v1.GET("/work-packages", handleListWorkPackages(db))
	v1.GET("/work-packages/:id", handleGetWorkPackage(db))
	v1.PUT("/work-packages/:id", handleEditWorkPackage(db))
	v1.GET("/work-packages/:id/materials", handleListMaterials(db))
	v1.PUT("/bullets/:id/check", handleCheckBullet(db))

	v1.POST("/reimbursements", handleCreateReimbursement(db))
	v1.GET("/reimbursements", handleListReimbursements(db))
	v1.GET("/reimbursements/:id", handleGetReimbursement(db))
	v1.PUT("/reimbursements/:id/status", handleReimbursementStatus(db))

	v1.POST("/materials", handleAddMaterial(db))
	v1.GET("/materials/:id", handleGetMaterial(db))
	v1.PUT("/materials/:id/status", handleMaterialStatus(db))
	v1.DELETE("/materials/:id", handleRemoveMaterial(db))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
