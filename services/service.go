// Package services holds the business operations behind the HTTP API. Every
// operation that touches more than one row runs inside a single database
// transaction, and domain events are published only after it commits.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bulk-buddy-api/events"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrTripNotOpen          = errors.New("trip is not accepting claims")
	ErrInsufficientQuantity = errors.New("insufficient quantity available")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrItemNotOnTrip        = errors.New("item does not belong to this trip")
	ErrOwnTrip              = errors.New("drivers cannot order from their own trip")
	ErrApplicationPending   = errors.New("a driver application is already pending")
	ErrAlreadyDriver        = errors.New("user is already a driver")
)

// Service bundles the database and event publisher used by all operations
type Service struct {
	DB     *gorm.DB
	Events events.Publisher
	Log    *slog.Logger
}

func New(db *gorm.DB, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &Service{DB: db, Events: publisher, Log: logger}
}

func (s *Service) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// PublishTimeout bounds delivery of the events for one operation
const PublishTimeout = 5 * time.Second

// publish reports delivery failures to the log only; the data is committed.
// The caller's cancellation is dropped so a disconnected client does not
// lose events, but a slow broker holds the request for at most PublishTimeout.
func (s *Service) publish(ctx context.Context, evts ...events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	for _, evt := range evts {
		if err := s.Events.Publish(ctx, evt); err != nil {
			s.Log.WarnContext(ctx, "event publish failed", "type", evt.Type, "entity_id", evt.EntityID, "error", err)
		}
	}
}

// notFound maps gorm's missing-row error onto ErrNotFound
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
