package api

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/crewplanhq/crewplan/internal/errs"
	"github.com/gin-gonic/gin"
)

// fail translates a service error into an HTTP status and JSON body.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrAlreadyReviewed), errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest rejects a request that failed binding.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
