// Package events publishes domain events about orders, trips and driver
// applications once the database transaction that caused them has committed.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Type string

const (
	OrderPlaced          Type = "order.placed"
	OrderStatusChanged   Type = "order.status_changed"
	OrderDeleted         Type = "order.deleted"
	TripCreated          Type = "trip.created"
	TripStatusChanged    Type = "trip.status_changed"
	TripDeleted          Type = "trip.deleted"
	ApplicationSubmitted Type = "driver_application.submitted"
	ApplicationReviewed  Type = "driver_application.reviewed"
)

// Event is the JSON payload written to the event stream
type Event struct {
	Type       Type      `json:"type"`
	EntityID   uint      `json:"entity_id"`
	Status     string    `json:"status,omitempty"`
	ActorID    uint      `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current UTC time
func New(typ Type, entityID uint, status string, actorID uint) Event {
	return Event{
		Type:       typ,
		EntityID:   entityID,
		Status:     status,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Delivery failures are reported to the caller,
// who decides whether they matter; committed data is never rolled back.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{Logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	p.Logger.InfoContext(ctx, "domain event",
		"type", evt.Type,
		"entity_id", evt.EntityID,
		"status", evt.Status,
		"actor_id", evt.ActorID,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a snapshot of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the recorded event types in order
func (r *Recorder) Types() []Type {
	var types []Type
	for _, e := range r.Events() {
		types = append(types, e.Type)
	}
	return types
}
