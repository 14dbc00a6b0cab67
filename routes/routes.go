package routes

import (
	"bulk-buddy-api/handlers"
	"bulk-buddy-api/middleware"
	"bulk-buddy-api/models"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the API on r. authRequired authenticates the caller
// and must run before any role check.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, authRequired gin.HandlerFunc) {
	r.GET("/health", h.Health)
	r.GET("/", h.Welcome)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Trip feed, ?lat=&lng=&radius_km= for nearby trips
		public.GET("/trips", h.ListTrips)
		public.GET("/trips/:id", h.GetTrip)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", h.GetProfile)
		auth.POST("/driver-applications", h.ApplyForDriver)
		auth.GET("/driver-applications", h.GetMyApplications)
	}

	// ── Shopper routes (drivers shop too) ──────────────────────────
	shopper := r.Group("/api")
	shopper.Use(authRequired, middleware.RoleRequired(models.RoleShopper, models.RoleDriver))
	{
		shopper.POST("/orders", h.PlaceOrder)
		shopper.POST("/checkout", h.Checkout)
		shopper.GET("/orders", h.GetMyOrders)
		shopper.GET("/orders/:id", h.GetOrder)
		shopper.PUT("/orders/:id/cancel", h.CancelOrder)
	}

	// ── Driver routes ──────────────────────────────────────────────
	driver := r.Group("/api/driver")
	driver.Use(authRequired, middleware.RoleRequired(models.RoleDriver))
	{
		driver.POST("/trips", h.CreateTrip)
		driver.GET("/trips", h.GetMyTrips)
		driver.POST("/trips/:id/items", h.AddItem)
		driver.PUT("/trips/:id/status", h.UpdateTripStatus)
		driver.DELETE("/trips/:id", h.DeleteTrip)
		driver.GET("/trips/:id/orders", h.GetTripOrders)
		driver.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", h.GetAllUsers)
		admin.GET("/driver-applications", h.GetApplications)
		admin.PUT("/driver-applications/:id", h.ReviewApplication)
		admin.GET("/orders/:id", h.GetOrder)
		admin.DELETE("/orders/:id", h.AdminDeleteOrder)
		admin.DELETE("/trips/:id", h.AdminDeleteTrip)
	}
}
