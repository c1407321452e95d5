// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event represents a scheduled event with limited capacity.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"` // unique
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	ImagePath   string             `bson:"image_path,omitempty" json:"image_path,omitempty"`

	StartsAt time.Time  `bson:"starts_at" json:"starts_at"`
	EndsAt   *time.Time `bson:"ends_at,omitempty" json:"ends_at,omitempty"`

	MaxSpots   int64 `bson:"max_spots" json:"max_spots"` // 0 means unlimited
	PriceCents int64 `bson:"price_cents" json:"price_cents"`

	// RegisteredCount is guarded against MaxSpots in the same atomic update
	// that increments it, so it can never exceed capacity.
	RegisteredCount int64 `bson:"registered_count" json:"registered_count"`

	Status string `bson:"status" json:"status"` // draft, published, archived

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasCapacity reports whether the event can accept another registration.
func (e *Event) HasCapacity() bool {
	return e.MaxSpots == 0 || e.RegisteredCount < e.MaxSpots
}

// EventRegistration records a user's registration for an event.
// The unique event_id+user_id index prevents double registration.
type EventRegistration struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID   primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
