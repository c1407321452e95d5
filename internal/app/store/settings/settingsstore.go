// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/wellspringhq/wellspring/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the site_settings collection.
// Wellspring uses a singleton settings document (only one per site).
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

// Get returns the site settings.
// If no settings exist, returns default settings.
func (s *Store) Get(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	// Use singleton filter - there's only one settings document
	filter := bson.M{"singleton": true}
	err := s.c.FindOne(ctx, filter).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		// Return default settings
		return &models.SiteSettings{
			SiteName: models.DefaultSiteName,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Exists checks if settings have been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	filter := bson.M{"singleton": true}
	count, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateInput holds the fields for updating settings.
type UpdateInput struct {
	SiteName     string
	ContactEmail string
	LogoPath     string
	LogoName     string
	// Security and notification settings
	RequireLoginOTP      bool
	NotifyUserOnRegister bool
	NotifyUserOnRenewal  bool
	// Who made the change
	UpdatedByID   *primitive.ObjectID
	UpdatedByName string
}

// Upsert updates or inserts site settings from UpdateInput.
func (s *Store) Upsert(ctx context.Context, input UpdateInput) error {
	now := time.Now().UTC()

	filter := bson.M{"singleton": true}
	update := bson.M{
		"$set": bson.M{
			"singleton":               true,
			"site_name":               input.SiteName,
			"contact_email":           input.ContactEmail,
			"logo_path":               input.LogoPath,
			"logo_name":               input.LogoName,
			"require_login_otp":       input.RequireLoginOTP,
			"notify_user_on_register": input.NotifyUserOnRegister,
			"notify_user_on_renewal":  input.NotifyUserOnRenewal,
			"updated_at":              now,
			"updated_by_id":           input.UpdatedByID,
			"updated_by_name":         input.UpdatedByName,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, filter, update, opts)
	return err
}

// UpdateLogo sets just the logo fields on the settings document.
func (s *Store) UpdateLogo(ctx context.Context, logoPath, logoName string) error {
	filter := bson.M{"singleton": true}
	update := bson.M{
		"$set": bson.M{
			"singleton":  true,
			"logo_path":  logoPath,
			"logo_name":  logoName,
			"updated_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, filter, update, opts)
	return err
}
