// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. Shutdown closes
// whatever connections it holds.
type DBDeps struct {
	// Backend names the document store in use (see BackendMongo etc.).
	Backend string

	// Docs is the document store every repository is built on.
	Docs docstore.Store

	// MongoDB client and database (Backend "mongo" only)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// SQLite handle (Backend "sqlite" only), kept for Close.
	SQLite *docstore.SQLiteStore

	// Redis handle (Backend "redis" only), kept for Close.
	Redis *docstore.RedisStore

	// Services shared by the background jobs and the HTTP handlers.
	Services *Services
}
