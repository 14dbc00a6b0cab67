package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents all possible states of a shopper's order
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPurchased OrderStatus = "purchased"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPurchased, OrderReady, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// HoldsClaims reports whether line items of an order in this state still
// count against their items' claimed quantity
func (s OrderStatus) HoldsClaims() bool {
	return s != OrderCancelled
}

// Order is one shopper checking out from one driver's trip. A cart that
// spans several trips becomes one Order per trip.
type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	ShopperID  uint        `json:"shopper_id" gorm:"not null;index:ix_orders_shopper_id"`
	Shopper    *User       `json:"shopper,omitempty" gorm:"foreignKey:ShopperID"`
	TripID     uint        `json:"trip_id" gorm:"not null;index:ix_orders_trip_id"`
	Status     OrderStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	OrderItems []OrderItem `json:"order_items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Total sums the priced line items. OrderItems must be loaded with Item.
func (o *Order) Total() float64 {
	var total float64
	for i := range o.OrderItems {
		total += o.OrderItems[i].LineTotal()
	}
	return total
}

// MarshalJSON includes the order total for payment splitting
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Total float64 `json:"total"`
	}{plain(o), o.Total()})
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.Status == "" {
		o.Status = OrderPending
	}
	return nil
}

func (o *Order) BeforeSave(tx *gorm.DB) error {
	if o.Status != "" && !o.Status.Valid() {
		return fmt.Errorf("invalid order status %q", o.Status)
	}
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("<Order %d by User %d on Trip %d (%s)>", o.ID, o.ShopperID, o.TripID, o.Status)
}
