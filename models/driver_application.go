package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// DriverApplication is a shopper's request to become a driver. Every attempt
// is its own row so a rejected user can reapply with a fresh history entry.
type DriverApplication struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	UserID      uint              `json:"user_id" gorm:"not null;index:ix_driver_applications_user_id"`
	User        *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status      ApplicationStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	LicenseInfo *string           `json:"license_info" gorm:"size:255"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (DriverApplication) TableName() string { return "driver_applications" }

func (a *DriverApplication) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = ApplicationPending
	}
	return nil
}

func (a *DriverApplication) BeforeSave(tx *gorm.DB) error {
	if a.Status != "" && !a.Status.Valid() {
		return fmt.Errorf("invalid application status %q", a.Status)
	}
	return nil
}

func (a *DriverApplication) String() string {
	return fmt.Sprintf("<DriverApplication %d User %d (%s)>", a.ID, a.UserID, a.Status)
}
