// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// OTPCleanupJob creates a job that removes expired one-time codes.
// The TTL index handles this too, but the sweep keeps the collection tidy
// on deployments where TTL monitors run infrequently.
func OTPCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "otp-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("otp_codes")
			result, err := coll.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up expired one-time codes",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
func OAuthStateCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("oauth_states")
			result, err := coll.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up expired oauth states",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// LoginAttemptCleanupJob creates a job that removes stale login attempt records.
func LoginAttemptCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "login-attempt-cleanup",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("login_attempts")
			cutoff := time.Now().Add(-24 * time.Hour)
			result, err := coll.DeleteMany(ctx, bson.M{
				"last_attempt": bson.M{"$lt": cutoff},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up stale login attempts",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// MembershipExpirySweepJob creates a job that marks memberships as expired
// once their end date has passed. Access checks already treat past-dated
// memberships as inactive; the sweep keeps the stored status accurate for
// admin listings and reporting.
func MembershipExpirySweepJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "membership-expiry-sweep",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("users")
			now := time.Now()

			result, err := coll.UpdateMany(ctx,
				bson.M{
					"membership.status":     bson.M{"$in": []string{"active", "cancelled"}},
					"membership.expires_at": bson.M{"$lt": now},
				},
				bson.M{
					"$set": bson.M{
						"membership.status": "expired",
						"updated_at":        now,
					},
				},
			)
			if err != nil {
				return err
			}
			if result.ModifiedCount > 0 {
				logger.Info("marked expired memberships",
					zap.Int64("count", result.ModifiedCount))
			}
			return nil
		},
	}
}
