package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Item is a bulk product a driver plans to buy on a trip.
//
// ClaimedQuantity duplicates SUM(order_items.quantity) for active orders so
// trip cards can show availability without an aggregate query. It only moves
// inside the transaction that creates or releases the matching order items,
// and never exceeds TotalQuantity.
type Item struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TripID          uint      `json:"trip_id" gorm:"not null;index:ix_items_trip_id"`
	Name            string    `json:"name" gorm:"size:200;not null"`
	Unit            string    `json:"unit" gorm:"size:50;not null"`
	TotalQuantity   int       `json:"total_quantity" gorm:"not null"`
	ClaimedQuantity int       `json:"claimed_quantity" gorm:"not null;default:0"`
	PricePerUnit    *float64  `json:"price_per_unit"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// AvailableQuantity is the number of units still open for claims
func (i Item) AvailableQuantity() int {
	return i.TotalQuantity - i.ClaimedQuantity
}

// MarshalJSON adds the derived available_quantity to the wire form
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		AvailableQuantity int `json:"available_quantity"`
	}{plain(i), i.AvailableQuantity()})
}

func (i *Item) String() string {
	return fmt.Sprintf("<Item %d '%s' %d/%d on Trip %d>", i.ID, i.Name, i.ClaimedQuantity, i.TotalQuantity, i.TripID)
}
