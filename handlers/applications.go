package handlers

import (
	"errors"
	"io"
	"net/http"

	"bulk-buddy-api/middleware"

	"github.com/gin-gonic/gin"
)

type DriverApplicationRequest struct {
	LicenseInfo *string `json:"license_info" binding:"omitempty,max=255"`
}

// ApplyForDriver files a driver application for the caller
func (h *Handler) ApplyForDriver(c *gin.Context) {
	var req DriverApplicationRequest
	// the body is optional; an empty one decodes to io.EOF
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	app, err := h.Svc.ApplyForDriver(c.Request.Context(), middleware.GetUserID(c), req.LicenseInfo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted", "application": app})
}

// GetMyApplications lists the caller's own applications
func (h *Handler) GetMyApplications(c *gin.Context) {
	apps, err := h.Svc.ListApplications(c.Request.Context(), middleware.GetUserID(c), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(apps), "applications": apps})
}
