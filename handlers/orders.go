package handlers

import (
	"net/http"

	"bulk-buddy-api/middleware"
	"bulk-buddy-api/models"
	"bulk-buddy-api/services"

	"github.com/gin-gonic/gin"
)

type OrderLineRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	TripID uint               `json:"trip_id" binding:"required"`
	Items  []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type CheckoutRequest struct {
	Items []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func lineInputs(reqs []OrderLineRequest) []services.LineInput {
	lines := make([]services.LineInput, len(reqs))
	for i, r := range reqs {
		lines[i] = services.LineInput{ItemID: r.ItemID, Quantity: r.Quantity}
	}
	return lines
}

// PlaceOrder claims items from a single trip
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.Svc.PlaceOrder(c.Request.Context(), middleware.GetUserID(c), req.TripID, lineInputs(req.Items))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// Checkout places one order per trip for a cart spanning several trips.
// Either every order is placed or none is.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	orders, err := h.Svc.Checkout(c.Request.Context(), middleware.GetUserID(c), lineInputs(req.Items))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Checkout complete", "count": len(orders), "orders": orders})
}

// GetMyOrders lists the caller's orders, optionally by status
func (h *Handler) GetMyOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	orders, err := h.Svc.ShopperOrders(c.Request.Context(), middleware.GetUserID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Svc.GetOrder(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder withdraws one of the caller's pending orders
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Svc.CancelOrder(c.Request.Context(), middleware.GetUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order_id": order.ID, "status": order.Status})
}

// UpdateOrderStatus advances an order on one of the driver's trips
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.Svc.UpdateOrderStatus(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order_id": order.ID, "status": order.Status})
}
