package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TripStatus tracks a driver's store run
type TripStatus string

const (
	TripOpen      TripStatus = "open"      // accepting claims
	TripClosed    TripStatus = "closed"    // driver is shopping
	TripCompleted TripStatus = "completed" // all handoffs done
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripOpen, TripClosed, TripCompleted:
		return true
	}
	return false
}

// Trip is a driver's upcoming run to a warehouse store. Pickup coordinates
// are per trip; the driver's address is only the default.
type Trip struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	DriverID           uint       `json:"driver_id" gorm:"not null;index:ix_trips_driver_id"`
	Driver             *User      `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	StoreName          string     `json:"store_name" gorm:"size:150;not null"`
	PickupLocationText string     `json:"pickup_location_text" gorm:"size:255;not null"`
	PickupLat          float64    `json:"pickup_lat" gorm:"not null;index:ix_trips_status_coords,priority:2"`
	PickupLng          float64    `json:"pickup_lng" gorm:"not null;index:ix_trips_status_coords,priority:3"`
	PickupTime         time.Time  `json:"pickup_time" gorm:"not null"`
	Status             TripStatus `json:"status" gorm:"size:20;not null;default:'open';index:ix_trips_status;index:ix_trips_status_coords,priority:1"`
	Items              []Item     `json:"items,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	Orders             []Order    `json:"orders,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Trip) TableName() string { return "trips" }

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TripOpen
	}
	return nil
}

func (t *Trip) BeforeSave(tx *gorm.DB) error {
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("invalid trip status %q", t.Status)
	}
	return nil
}

func (t *Trip) String() string {
	return fmt.Sprintf("<Trip %d %s (%s) by User %d>", t.ID, t.StoreName, t.Status, t.DriverID)
}
