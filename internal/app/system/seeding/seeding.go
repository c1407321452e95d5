// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"

	settingsstore "github.com/wellspringhq/wellspring/internal/app/store/settings"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if err := seedSiteSettings(ctx, db, logger); err != nil {
		return err
	}
	return nil
}

// seedSiteSettings creates the settings singleton if it doesn't exist,
// so admin screens have a document to edit from the first boot.
func seedSiteSettings(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	store := settingsstore.New(db)

	exists, err := store.Exists(ctx)
	if err != nil {
		logger.Error("failed to check if site settings exist", zap.Error(err))
		return err
	}
	if exists {
		return nil
	}

	if err := store.Upsert(ctx, settingsstore.UpdateInput{
		SiteName: models.DefaultSiteName,
	}); err != nil {
		logger.Error("failed to seed site settings", zap.Error(err))
		return err
	}
	logger.Info("seeded default site settings", zap.String("site_name", models.DefaultSiteName))

	return nil
}
