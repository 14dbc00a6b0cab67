// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"bulk-buddy-api/config"
	"bulk-buddy-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var userSeq atomic.Int64

// Config returns a configuration pointing at a private in-memory database
func Config() config.Config {
	cfg := config.Default()
	cfg.DatabaseURL = "file::memory:"
	cfg.GinMode = "test"
	cfg.JWTSecret = []byte("test-secret")
	return cfg
}

// SetupTestDB opens a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.OpenDB(Config())
	require.NoError(t, err, "open test database")
	require.NoError(t, db.AutoMigrate(models.All()...), "migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given role and a unique email
func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	user := &models.User{
		Email:         fmt.Sprintf("user%d@example.com", n),
		PasswordHash:  "x",
		FirstName:     "Test",
		LastName:      fmt.Sprintf("User%d", n),
		Role:          role,
		AddressStreet: "1 Main St",
		AddressCity:   "Springfield",
		AddressState:  "IL",
		AddressZip:    "62701",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTrip inserts an open trip for driver with one item per quantity
func CreateTrip(t *testing.T, db *gorm.DB, driver *models.User, quantities ...int) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		DriverID:           driver.ID,
		StoreName:          "Costco",
		PickupLocationText: "Parking lot B",
		PickupLat:          47.6062,
		PickupLng:          -122.3321,
		PickupTime:         time.Now().Add(24 * time.Hour).UTC(),
	}
	for i, q := range quantities {
		price := 2.5
		trip.Items = append(trip.Items, models.Item{
			Name:          fmt.Sprintf("Item %d", i+1),
			Unit:          "pack",
			TotalQuantity: q,
			PricePerUnit:  &price,
		})
	}
	require.NoError(t, db.Create(trip).Error)
	return trip
}

// Count returns the number of rows in model's table
func Count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
