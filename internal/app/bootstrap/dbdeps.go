// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/wellspringhq/wellspring/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The Shutdown
// hook is responsible for closing these connections gracefully.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage for uploads (content images, documents, the site logo)
	FileStorage storage.Store

	// Mailer for outgoing email (OTP codes, registration and event mail)
	Mailer *mailer.Mailer
}
