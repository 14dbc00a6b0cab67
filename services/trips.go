package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bulk-buddy-api/events"
	"bulk-buddy-api/geo"
	"bulk-buddy-api/models"
	"bulk-buddy-api/statemachine"

	"gorm.io/gorm"
)

// DefaultRadiusKm bounds the nearby-trip feed when no radius is given
const DefaultRadiusKm = 25.0

type ItemInput struct {
	Name          string
	Unit          string
	TotalQuantity int
	PricePerUnit  *float64
}

func (in ItemInput) validate() error {
	if in.TotalQuantity <= 0 {
		return fmt.Errorf("%w: total_quantity for %q", ErrInvalidQuantity, in.Name)
	}
	if in.PricePerUnit != nil && *in.PricePerUnit < 0 {
		return fmt.Errorf("%w: price_per_unit for %q must not be negative", ErrInvalidQuantity, in.Name)
	}
	return nil
}

type TripInput struct {
	StoreName          string
	PickupLocationText string
	PickupLat          float64
	PickupLng          float64
	PickupTime         time.Time
	Items              []ItemInput
}

// TripFilter narrows the trip feed. Near switches to distance ordering.
type TripFilter struct {
	Status   models.TripStatus
	DriverID uint
	Near     *geo.Point
	RadiusKm float64
}

// TripListing is a trip in the feed with its distance from the search point
type TripListing struct {
	models.Trip
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// CreateTrip stores a new open trip and any items listed with it
func (s *Service) CreateTrip(ctx context.Context, driverID uint, in TripInput) (*models.Trip, error) {
	trip := models.Trip{
		DriverID:           driverID,
		StoreName:          in.StoreName,
		PickupLocationText: in.PickupLocationText,
		PickupLat:          in.PickupLat,
		PickupLng:          in.PickupLng,
		PickupTime:         in.PickupTime.UTC(),
		Status:             models.TripOpen,
	}
	for _, item := range in.Items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		trip.Items = append(trip.Items, newItem(item))
	}

	if err := s.db(ctx).Create(&trip).Error; err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.TripCreated, trip.ID, string(trip.Status), driverID))
	return &trip, nil
}

func newItem(in ItemInput) models.Item {
	return models.Item{
		Name:          in.Name,
		Unit:          in.Unit,
		TotalQuantity: in.TotalQuantity,
		PricePerUnit:  in.PricePerUnit,
	}
}

// AddItem lists another product on an open trip owned by the driver
func (s *Service) AddItem(ctx context.Context, driverID, tripID uint, in ItemInput) (*models.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := newItem(in)
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.First(&trip, tripID).Error; err != nil {
			return notFound(err, "trip", tripID)
		}
		if trip.DriverID != driverID {
			return fmt.Errorf("%w: trip %d belongs to another driver", ErrForbidden, tripID)
		}
		if trip.Status != models.TripOpen {
			return fmt.Errorf("%w: trip %d is %s", ErrTripNotOpen, tripID, trip.Status)
		}
		item.TripID = trip.ID
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetTrip loads a trip with its driver and items
func (s *Service) GetTrip(ctx context.Context, id uint) (*models.Trip, error) {
	var trip models.Trip
	err := s.db(ctx).
		Preload("Driver").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&trip, id).Error
	if err != nil {
		return nil, notFound(err, "trip", id)
	}
	return &trip, nil
}

// ListTrips returns the trip feed. With Near set, only trips within the
// radius are returned, closest first, and Status defaults to open.
func (s *Service) ListTrips(ctx context.Context, f TripFilter) ([]TripListing, error) {
	query := s.db(ctx).Preload("Items")

	status := f.Status
	if status == "" && f.Near != nil {
		status = models.TripOpen
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if f.DriverID != 0 {
		query = query.Where("driver_id = ?", f.DriverID)
	}

	radius := f.RadiusKm
	if f.Near != nil {
		if radius <= 0 {
			radius = DefaultRadiusKm
		}
		// range scan on (status, pickup_lat, pickup_lng)
		box := geo.BoundingBox(*f.Near, radius)
		query = query.Where("pickup_lat BETWEEN ? AND ?", box.MinLat, box.MaxLat)
		if box.WrapsAntimeridian() {
			query = query.Where("(pickup_lng >= ? OR pickup_lng <= ?)", box.MinLng, box.MaxLng)
		} else {
			query = query.Where("pickup_lng BETWEEN ? AND ?", box.MinLng, box.MaxLng)
		}
	} else {
		query = query.Order("pickup_time asc")
	}

	var trips []models.Trip
	if err := query.Find(&trips).Error; err != nil {
		return nil, err
	}

	listings := make([]TripListing, 0, len(trips))
	for _, trip := range trips {
		listing := TripListing{Trip: trip}
		if f.Near != nil {
			d := geo.DistanceKm(*f.Near, geo.Point{Lat: trip.PickupLat, Lng: trip.PickupLng})
			if d > radius {
				continue
			}
			listing.DistanceKm = &d
		}
		listings = append(listings, listing)
	}
	if f.Near != nil {
		sort.SliceStable(listings, func(i, j int) bool {
			return *listings[i].DistanceKm < *listings[j].DistanceKm
		})
	}
	return listings, nil
}

// loadOwnedTrip fetches a trip the actor may manage: its driver, or any admin
func loadOwnedTrip(tx *gorm.DB, actorID uint, role models.UserRole, tripID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := tx.First(&trip, tripID).Error; err != nil {
		return nil, notFound(err, "trip", tripID)
	}
	if role != models.RoleAdmin && trip.DriverID != actorID {
		return nil, fmt.Errorf("%w: trip %d belongs to another driver", ErrForbidden, tripID)
	}
	return &trip, nil
}

// tripActor is the role the state machine sees: admins act as admins,
// everyone else can only reach a trip as its driver
func tripActor(role models.UserRole) models.UserRole {
	if role == models.RoleAdmin {
		return models.RoleAdmin
	}
	return models.RoleDriver
}

// UpdateTripStatus moves a trip along open → closed → completed
func (s *Service) UpdateTripStatus(ctx context.Context, actorID uint, role models.UserRole, tripID uint, to models.TripStatus) (*models.Trip, error) {
	var trip *models.Trip
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if trip, err = loadOwnedTrip(tx, actorID, role, tripID); err != nil {
			return err
		}
		if err := statemachine.Trips.CanTransition(trip.Status, to, tripActor(role)); err != nil {
			return err
		}
		if err := tx.Model(trip).Update("status", to).Error; err != nil {
			return err
		}
		trip.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.TripStatusChanged, trip.ID, string(to), actorID))
	return trip, nil
}

// DeleteTrip removes a trip; its items, orders and order items go with it
func (s *Service) DeleteTrip(ctx context.Context, actorID uint, role models.UserRole, tripID uint) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		trip, err := loadOwnedTrip(tx, actorID, role, tripID)
		if err != nil {
			return err
		}
		return tx.Delete(trip).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.New(events.TripDeleted, tripID, "", actorID))
	return nil
}

// TripOrders lists every order placed against a trip for its driver
func (s *Service) TripOrders(ctx context.Context, actorID uint, role models.UserRole, tripID uint) ([]models.Order, error) {
	if _, err := loadOwnedTrip(s.db(ctx), actorID, role, tripID); err != nil {
		return nil, err
	}
	var orders []models.Order
	err := s.db(ctx).
		Preload("Shopper").
		Preload("OrderItems.Item").
		Where("trip_id = ?", tripID).
		Order("created_at asc").
		Find(&orders).Error
	return orders, err
}
