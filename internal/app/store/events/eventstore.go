// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/store/storeutil"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateSlug is returned when an event slug is already taken.
	ErrDuplicateSlug = errors.New("an event with this slug already exists")
	// ErrAlreadyRegistered is returned when the user is already registered.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrEventFull is returned when the event has no spots left.
	ErrEventFull = errors.New("event is full")
	// ErrNotRegistered is returned when unregistering a user who isn't registered.
	ErrNotRegistered = errors.New("not registered for this event")
)

// Store provides access to the events and event_registrations collections.
type Store struct {
	c             *mongo.Collection
	registrations *mongo.Collection
}

// New creates a new event store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:             db.Collection("events"),
		registrations: db.Collection("event_registrations"),
	}
}

// CreateInput contains the input for creating an event.
type CreateInput struct {
	Title       string
	Slug        string
	Description string
	Location    string
	ImagePath   string
	StartsAt    time.Time
	EndsAt      *time.Time
	MaxSpots    int64
	PriceCents  int64
	Status      string
}

// Create creates a new event. Returns ErrDuplicateSlug if the slug is taken.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Event, error) {
	now := time.Now()
	event := models.Event{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
		Location:    input.Location,
		ImagePath:   input.ImagePath,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		MaxSpots:    input.MaxSpots,
		PriceCents:  input.PriceCents,
		Status:      input.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, event); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &event, nil
}

// GetByID retrieves an event by ID regardless of status.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetPublishedBySlug retrieves a published event by its unique slug.
func (s *Store) GetPublishedBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	filter := bson.M{
		"slug":   slug,
		"status": models.ContentPublished,
	}
	if err := s.c.FindOne(ctx, filter).Decode(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateInput contains the input for updating an event.
// Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Slug        *string
	Description *string
	Location    *string
	ImagePath   *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	MaxSpots    *int64
	PriceCents  *int64
	Status      *string
}

// Update updates an event. Returns ErrDuplicateSlug if the new slug is taken.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}

	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Slug != nil {
		set["slug"] = *input.Slug
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Location != nil {
		set["location"] = *input.Location
	}
	if input.ImagePath != nil {
		set["image_path"] = *input.ImagePath
	}
	if input.StartsAt != nil {
		set["starts_at"] = *input.StartsAt
	}
	if input.EndsAt != nil {
		set["ends_at"] = *input.EndsAt
	}
	if input.MaxSpots != nil {
		set["max_spots"] = *input.MaxSpots
	}
	if input.PriceCents != nil {
		set["price_cents"] = *input.PriceCents
	}
	if input.Status != nil {
		set["status"] = *input.Status
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// Delete deletes an event and its registrations.
// Returns the number of event documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount > 0 {
		_, _ = s.registrations.DeleteMany(ctx, bson.M{"event_id": id})
	}
	return res.DeletedCount, nil
}

// ListUpcoming returns published events that haven't started yet,
// soonest first, with 1-based pagination.
func (s *Store) ListUpcoming(ctx context.Context, limit, page int64) ([]models.Event, error) {
	filter := bson.M{
		"status":    models.ContentPublished,
		"starts_at": bson.M{"$gte": time.Now()},
	}
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "starts_at", Value: 1}})

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListAll returns events of every status, newest start first, with 1-based pagination.
func (s *Store) ListAll(ctx context.Context, limit, page int64) ([]models.Event, error) {
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "starts_at", Value: -1}})

	cursor, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountUpcoming returns the number of published events that haven't started.
func (s *Store) CountUpcoming(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"status":    models.ContentPublished,
		"starts_at": bson.M{"$gte": time.Now()},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Registrations                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// Register registers the user for the event.
//
// The registration record is inserted first; the unique event_id+user_id
// index rejects duplicates. The counter increment is then guarded by
// capacity in the same update filter, so registered_count can never pass
// max_spots even under concurrent registrations. If the event filled up
// between insert and increment, the record is rolled back and ErrEventFull
// is returned.
func (s *Store) Register(ctx context.Context, eventID, userID primitive.ObjectID) error {
	registration := models.EventRegistration{
		ID:        primitive.NewObjectID(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if _, err := s.registrations.InsertOne(ctx, registration); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrAlreadyRegistered
		}
		return err
	}

	filter := bson.M{
		"_id": eventID,
		"$or": []bson.M{
			{"max_spots": 0}, // unlimited
			{"$expr": bson.M{"$lt": bson.A{"$registered_count", "$max_spots"}}},
		},
	}
	res, err := s.c.UpdateOne(ctx, filter,
		bson.M{"$inc": bson.M{"registered_count": 1}})
	if err != nil {
		_, _ = s.registrations.DeleteOne(ctx, bson.M{"_id": registration.ID})
		return err
	}
	if res.MatchedCount == 0 {
		_, _ = s.registrations.DeleteOne(ctx, bson.M{"_id": registration.ID})
		return ErrEventFull
	}
	return nil
}

// Unregister removes the user's registration and decrements the counter.
func (s *Store) Unregister(ctx context.Context, eventID, userID primitive.ObjectID) error {
	res, err := s.registrations.DeleteOne(ctx, bson.M{
		"event_id": eventID,
		"user_id":  userID,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotRegistered
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": eventID, "registered_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"registered_count": -1}},
	)
	return err
}

// IsRegistered reports whether the user is registered for the event.
func (s *Store) IsRegistered(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	count, err := s.registrations.CountDocuments(ctx, bson.M{
		"event_id": eventID,
		"user_id":  userID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRegistrationsByUser returns the user's registrations, newest first.
func (s *Store) ListRegistrationsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.EventRegistration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.registrations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var registrations []models.EventRegistration
	if err := cursor.All(ctx, &registrations); err != nil {
		return nil, err
	}
	return registrations, nil
}
