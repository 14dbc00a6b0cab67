package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderItem records how many units of an item a shopper claimed in an order
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"not null;index:ix_order_items_order_id"`
	ItemID    uint      `json:"item_id" gorm:"not null;index:ix_order_items_item_id"`
	Item      *Item     `json:"item,omitempty" gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotal is quantity times the item's unit price, zero when unpriced
func (oi *OrderItem) LineTotal() float64 {
	if oi.Item == nil || oi.Item.PricePerUnit == nil {
		return 0
	}
	return float64(oi.Quantity) * *oi.Item.PricePerUnit
}

func (oi *OrderItem) BeforeSave(tx *gorm.DB) error {
	if oi.Quantity <= 0 {
		return errors.New("order item quantity must be positive")
	}
	return nil
}

func (oi *OrderItem) String() string {
	return fmt.Sprintf("<OrderItem %d qty=%d of Item %d in Order %d>", oi.ID, oi.Quantity, oi.ItemID, oi.OrderID)
}
