package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bulk-buddy-api/geo"
	"bulk-buddy-api/middleware"
	"bulk-buddy-api/models"
	"bulk-buddy-api/services"

	"github.com/gin-gonic/gin"
)

type ItemRequest struct {
	Name          string   `json:"name" binding:"required"`
	Unit          string   `json:"unit" binding:"required"`
	TotalQuantity int      `json:"total_quantity" binding:"required,min=1"`
	PricePerUnit  *float64 `json:"price_per_unit" binding:"omitempty,gte=0"`
}

func (r ItemRequest) input() services.ItemInput {
	return services.ItemInput{
		Name:          r.Name,
		Unit:          r.Unit,
		TotalQuantity: r.TotalQuantity,
		PricePerUnit:  r.PricePerUnit,
	}
}

type CreateTripRequest struct {
	StoreName          string        `json:"store_name" binding:"required"`
	PickupLocationText string        `json:"pickup_location_text" binding:"required"`
	PickupLat          float64       `json:"pickup_lat" binding:"gte=-90,lte=90"`
	PickupLng          float64       `json:"pickup_lng" binding:"gte=-180,lte=180"`
	PickupTime         time.Time     `json:"pickup_time" binding:"required"`
	Items              []ItemRequest `json:"items" binding:"omitempty,dive"`
}

type UpdateTripStatusRequest struct {
	Status models.TripStatus `json:"status" binding:"required"`
}

// ListTrips is the public trip feed. lat/lng switch it to nearby mode.
func (h *Handler) ListTrips(c *gin.Context) {
	filter := services.TripFilter{Status: models.TripStatus(c.Query("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Must be: open, closed, or completed"})
		return
	}
	if driverID := c.Query("driver_id"); driverID != "" {
		id, err := strconv.ParseUint(driverID, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver_id"})
			return
		}
		filter.DriverID = uint(id)
	}

	near, radius, err := parseNear(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	filter.Near, filter.RadiusKm = near, radius

	trips, err := h.Svc.ListTrips(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(trips), "trips": trips})
}

func parseNear(c *gin.Context) (*geo.Point, float64, error) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" && lngStr == "" {
		return nil, 0, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, 0, errors.New("lat and lng must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, 0, errors.New("invalid lat")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, 0, errors.New("invalid lng")
	}
	var radius float64
	if r := c.Query("radius_km"); r != "" {
		if radius, err = strconv.ParseFloat(r, 64); err != nil || radius <= 0 {
			return nil, 0, errors.New("invalid radius_km")
		}
	}
	return &geo.Point{Lat: lat, Lng: lng}, radius, nil
}

// GetTrip returns a single trip with its items
func (h *Handler) GetTrip(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	trip, err := h.Svc.GetTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// CreateTrip lets a driver announce a store run
func (h *Handler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in := services.TripInput{
		StoreName:          req.StoreName,
		PickupLocationText: req.PickupLocationText,
		PickupLat:          req.PickupLat,
		PickupLng:          req.PickupLng,
		PickupTime:         req.PickupTime,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, item.input())
	}

	trip, err := h.Svc.CreateTrip(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Trip created", "trip": trip})
}

// GetMyTrips lists the calling driver's trips
func (h *Handler) GetMyTrips(c *gin.Context) {
	trips, err := h.Svc.ListTrips(c.Request.Context(), services.TripFilter{
		DriverID: middleware.GetUserID(c),
		Status:   models.TripStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(trips), "trips": trips})
}

// AddItem adds a product to one of the driver's open trips
func (h *Handler) AddItem(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.Svc.AddItem(c.Request.Context(), middleware.GetUserID(c), tripID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Item added", "item": item})
}

// UpdateTripStatus closes or completes a trip
func (h *Handler) UpdateTripStatus(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	trip, err := h.Svc.UpdateTripStatus(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), tripID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip status updated", "trip_id": trip.ID, "status": trip.Status})
}

// DeleteTrip removes a trip along with its items and orders
func (h *Handler) DeleteTrip(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.DeleteTrip(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), tripID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}

// GetTripOrders shows the driver every order on a trip, with a status summary
func (h *Handler) GetTripOrders(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	orders, err := h.Svc.TripOrders(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	summary := map[string]int{}
	var total float64
	for i := range orders {
		summary[string(orders[i].Status)]++
		if orders[i].Status != models.OrderCancelled {
			total += orders[i].Total()
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_value":   total,
		"count":         len(orders),
		"orders":        orders,
	})
}
