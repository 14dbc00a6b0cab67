package services

import (
	"context"
	"errors"
	"fmt"

	"bulk-buddy-api/events"
	"bulk-buddy-api/models"
	"bulk-buddy-api/statemachine"

	"gorm.io/gorm"
)

// ApplyForDriver files a new application for a shopper. A rejected shopper
// may apply again; only one application can be pending at a time.
func (s *Service) ApplyForDriver(ctx context.Context, userID uint, licenseInfo *string) (*models.DriverApplication, error) {
	app := models.DriverApplication{
		UserID:      userID,
		Status:      models.ApplicationPending,
		LicenseInfo: licenseInfo,
	}
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFound(err, "user", userID)
		}
		switch user.Role {
		case models.RoleDriver:
			return ErrAlreadyDriver
		case models.RoleAdmin:
			return fmt.Errorf("%w: admins cannot apply to drive", ErrForbidden)
		}

		var pending models.DriverApplication
		err := tx.Where("user_id = ? AND status = ?", userID, models.ApplicationPending).First(&pending).Error
		if err == nil {
			return fmt.Errorf("%w: application %d", ErrApplicationPending, pending.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&app).Error
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.ApplicationSubmitted, app.ID, string(app.Status), userID))
	return &app, nil
}

// ListApplications returns applications, newest first. Zero values skip
// the corresponding filter.
func (s *Service) ListApplications(ctx context.Context, userID uint, status models.ApplicationStatus) ([]models.DriverApplication, error) {
	query := s.db(ctx).Preload("User")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var apps []models.DriverApplication
	err := query.Order("created_at desc").Order("id desc").Find(&apps).Error
	return apps, err
}

// ReviewApplication approves or rejects a pending application. Approval
// upgrades the applicant to driver in the same transaction.
func (s *Service) ReviewApplication(ctx context.Context, adminID, appID uint, approve bool) (*models.DriverApplication, error) {
	to := models.ApplicationRejected
	if approve {
		to = models.ApplicationApproved
	}

	var app models.DriverApplication
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, appID).Error; err != nil {
			return notFound(err, "driver application", appID)
		}
		if err := statemachine.DriverApplications.CanTransition(app.Status, to, models.RoleAdmin); err != nil {
			return err
		}
		if err := tx.Model(&app).Update("status", to).Error; err != nil {
			return err
		}
		app.Status = to

		if approve {
			res := tx.Model(&models.User{}).Where("id = ?", app.UserID).Update("role", models.RoleDriver)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: user %d", ErrNotFound, app.UserID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.ApplicationReviewed, app.ID, string(app.Status), adminID))
	return &app, nil
}
