// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/wellspringhq/wellspring/internal/app/store/users"
	"github.com/wellspringhq/wellspring/internal/app/system/authutil"
	"github.com/wellspringhq/wellspring/internal/app/system/tasks"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed admin user if configured and no active admin exists yet.
	if appCfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, deps, appCfg, logger); err != nil {
			logger.Error("failed to seed admin user", zap.Error(err))
			return err
		}
	}

	startTaskRunner(deps.MongoDatabase, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(db *mongo.Database, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.OTPCleanupJob(db, logger))
	taskRunner.Register(tasks.OAuthStateCleanupJob(db, logger))
	taskRunner.Register(tasks.LoginAttemptCleanupJob(db, logger))
	taskRunner.Register(tasks.MembershipExpirySweepJob(db, logger))

	taskRunner.Start()
}

// ensureAdminUser makes sure an active admin account exists. If a user with
// the configured email exists they are promoted to admin; otherwise a new
// admin is created with the configured password.
func ensureAdminUser(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	count, err := users.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("active admin already exists; skipping admin seeding")
		return nil
	}

	existing, err := users.GetByEmail(ctx, appCfg.SeedAdminEmail)
	if err == nil {
		role := models.RoleAdmin
		active := "active"
		if err := users.UpdateFromInput(ctx, existing.ID, userstore.UpdateInput{
			Role:   &role,
			Status: &active,
		}); err != nil {
			return err
		}
		logger.Info("promoted existing user to admin",
			zap.String("email", existing.Email),
			zap.String("user_id", existing.ID.Hex()))
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	hash, err := authutil.HashPassword(appCfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	name := appCfg.SeedAdminName
	if name == "" {
		name = "Admin"
	}

	created, err := users.Create(ctx, models.User{
		FullName:     name,
		Email:        appCfg.SeedAdminEmail,
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: &hash,
		Role:         models.RoleAdmin,
		Status:       "active",
	})
	if err != nil {
		return err
	}

	logger.Info("created admin user",
		zap.String("email", created.Email),
		zap.String("user_id", created.ID.Hex()))
	return nil
}
