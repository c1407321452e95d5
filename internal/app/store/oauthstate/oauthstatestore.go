// internal/app/store/oauthstate/oauthstatestore.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// stateTTL is how long an issued state token stays redeemable.
const stateTTL = 10 * time.Minute

// State represents an OAuth state token record.
type State struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	State      string             `bson:"state"`
	RedirectTo string             `bson:"redirect_to,omitempty"` // where to send the user after the callback
	ExpiresAt  time.Time          `bson:"expires_at"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// Store provides access to the oauth_states collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("oauth_states"),
	}
}

// Create stores a new OAuth state token with an optional post-login redirect.
func (s *Store) Create(ctx context.Context, state, redirectTo string) error {
	now := time.Now()
	doc := State{
		ID:         primitive.NewObjectID(),
		State:      state,
		RedirectTo: redirectTo,
		ExpiresAt:  now.Add(stateTTL),
		CreatedAt:  now,
	}

	_, err := s.c.InsertOne(ctx, doc)
	return err
}

// Consume checks a state token, deletes it (single use), and returns
// the stored redirect target. ok is false if the state was missing or expired.
func (s *Store) Consume(ctx context.Context, state string) (redirectTo string, ok bool) {
	filter := bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	var doc State
	if err := s.c.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return "", false
	}
	return doc.RedirectTo, true
}
