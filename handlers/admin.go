package handlers

import (
	"net/http"

	"bulk-buddy-api/middleware"
	"bulk-buddy-api/models"

	"github.com/gin-gonic/gin"
)

type ReviewApplicationRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// GetAllUsers lists users, optionally filtered by ?role=
func (h *Handler) GetAllUsers(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if role != "" && !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be: shopper, driver, or admin"})
		return
	}
	users, err := h.Svc.ListUsers(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// GetApplications lists driver applications, pending ones by default
func (h *Handler) GetApplications(c *gin.Context) {
	status := models.ApplicationStatus(c.DefaultQuery("status", string(models.ApplicationPending)))
	if status == "all" {
		status = ""
	} else if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Must be: pending, approved, rejected, or all"})
		return
	}
	apps, err := h.Svc.ListApplications(c.Request.Context(), 0, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(apps), "applications": apps})
}

// ReviewApplication approves or rejects a pending application
func (h *Handler) ReviewApplication(c *gin.Context) {
	appID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReviewApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	app, err := h.Svc.ReviewApplication(c.Request.Context(), middleware.GetUserID(c), appID, *req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application " + string(app.Status), "application": app})
}

func (h *Handler) AdminDeleteOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeleteOrder(c.Request.Context(), middleware.GetUserID(c), orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

func (h *Handler) AdminDeleteTrip(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeleteTrip(c.Request.Context(), middleware.GetUserID(c), models.RoleAdmin, tripID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}
