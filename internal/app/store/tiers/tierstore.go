// internal/app/store/tiers/tierstore.go
package tierstore

import (
	"context"
	"errors"
	"time"

	"github.com/wellspringhq/wellspring/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateSlug is returned when a tier slug is already taken.
var ErrDuplicateSlug = errors.New("a membership tier with this slug already exists")

// Store provides access to the membership_tiers collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new membership tier store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("membership_tiers")}
}

// CreateInput contains the input for creating a tier.
type CreateInput struct {
	Name         string
	Slug         string
	Description  string
	PriceCents   int64
	BillingCycle string
	Features     []string
	Active       bool
	Order        int
}

// Create creates a new tier. Returns ErrDuplicateSlug if the slug is taken.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.MembershipTier, error) {
	now := time.Now()
	tier := models.MembershipTier{
		ID:           primitive.NewObjectID(),
		Name:         input.Name,
		Slug:         input.Slug,
		Description:  input.Description,
		PriceCents:   input.PriceCents,
		BillingCycle: input.BillingCycle,
		Features:     input.Features,
		Active:       input.Active,
		Order:        input.Order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tier.Features == nil {
		tier.Features = []string{}
	}

	if _, err := s.c.InsertOne(ctx, tier); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &tier, nil
}

// GetByID retrieves a tier by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MembershipTier, error) {
	var tier models.MembershipTier
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&tier); err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetBySlug retrieves a tier by its unique slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.MembershipTier, error) {
	var tier models.MembershipTier
	if err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&tier); err != nil {
		return nil, err
	}
	return &tier, nil
}

// UpdateInput contains the input for updating a tier.
// Nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	Slug         *string
	Description  *string
	PriceCents   *int64
	BillingCycle *string
	Features     *[]string
	Active       *bool
	Order        *int
}

// Update updates a tier. Returns ErrDuplicateSlug if the new slug is taken.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}

	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Slug != nil {
		set["slug"] = *input.Slug
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.PriceCents != nil {
		set["price_cents"] = *input.PriceCents
	}
	if input.BillingCycle != nil {
		set["billing_cycle"] = *input.BillingCycle
	}
	if input.Features != nil {
		set["features"] = *input.Features
	}
	if input.Active != nil {
		set["active"] = *input.Active
	}
	if input.Order != nil {
		set["order"] = *input.Order
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

// Delete deletes a tier by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListActive returns active tiers ordered by display order.
func (s *Store) ListActive(ctx context.Context) ([]models.MembershipTier, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	return s.list(ctx, bson.M{"active": true}, opts)
}

// ListAll returns every tier ordered by display order.
func (s *Store) ListAll(ctx context.Context) ([]models.MembershipTier, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	return s.list(ctx, bson.M{}, opts)
}

func (s *Store) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.MembershipTier, error) {
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tiers []models.MembershipTier
	if err := cursor.All(ctx, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// IncSubscribers moves the tier's subscriber counter by delta (atomic $inc).
func (s *Store) IncSubscribers(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"subscriber_count": delta}},
	)
	return err
}
