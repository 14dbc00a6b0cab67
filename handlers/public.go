package handlers

import (
	"net/http"

	"bulk-buddy-api/models"
	"bulk-buddy-api/statemachine"

	"github.com/gin-gonic/gin"
)

const (
	serviceName = "Bulk Buddy API"
	version     = "1.0.0"
)

// Health reports whether the database is reachable
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.Svc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": serviceName, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName, "version": version})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Bulk Buddy API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"roles":   []models.UserRole{models.RoleShopper, models.RoleDriver, models.RoleAdmin},
	})
}

func machineInfo[S ~string](m *statemachine.Machine[S], states ...S) gin.H {
	var terminal []S
	for _, s := range states {
		if m.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	return gin.H{
		"states":      states,
		"terminal":    terminal,
		"transitions": m.Transitions(),
	}
}

// GetStateMachineInfo documents every lifecycle and who may drive it
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		statemachine.Orders.Name(): machineInfo(statemachine.Orders,
			models.OrderPending, models.OrderPurchased, models.OrderReady, models.OrderCompleted, models.OrderCancelled),
		statemachine.Trips.Name(): machineInfo(statemachine.Trips,
			models.TripOpen, models.TripClosed, models.TripCompleted),
		statemachine.DriverApplications.Name(): machineInfo(statemachine.DriverApplications,
			models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected),
	})
}
