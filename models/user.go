package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleShopper UserRole = "shopper"
	RoleDriver  UserRole = "driver"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleShopper, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// User is every person on the platform. Coordinates are stored at
// registration time so the nearby-trip feed never needs a geocoding call.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Email         string    `json:"email" gorm:"size:255;not null;uniqueIndex:ix_users_email"`
	PasswordHash  string    `json:"-" gorm:"size:255;not null"`
	FirstName     string    `json:"first_name" gorm:"size:100;not null"`
	LastName      string    `json:"last_name" gorm:"size:100;not null"`
	Role          UserRole  `json:"role" gorm:"size:20;not null;default:'shopper'"`
	AddressStreet string    `json:"address_street" gorm:"size:255;not null"`
	AddressCity   string    `json:"address_city" gorm:"size:100;not null"`
	AddressState  string    `json:"address_state" gorm:"size:50;not null"`
	AddressZip    string    `json:"address_zip" gorm:"size:20;not null"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// FullName joins first and last name for display
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleShopper
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Role != "" && !u.Role.Valid() {
		return fmt.Errorf("invalid user role %q", u.Role)
	}
	return nil
}

func (u *User) String() string {
	return fmt.Sprintf("<User %d %s (%s)>", u.ID, u.Email, u.Role)
}
