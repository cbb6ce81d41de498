// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/app/system/indexes"
	"github.com/dalemusser/stratadash/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB opens the configured document store and builds the services
// on top of it.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema
// and Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Backend: appCfg.StoreBackend}

	switch appCfg.StoreBackend {
	case BackendMongo:
		poolCfg := wafflemongo.DefaultPoolConfig()
		if appCfg.MongoMaxPoolSize > 0 {
			poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
		}
		if appCfg.MongoMinPoolSize > 0 {
			poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
		}

		client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
		if err != nil {
			return DBDeps{}, err
		}
		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
		deps.Docs = docstore.NewMongo(deps.MongoDatabase).WithLogger(logger)

		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
			zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
		)

	case BackendSQLite:
		s, err := docstore.OpenSQLite(ctx, appCfg.SQLitePath)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		deps.SQLite = s
		deps.Docs = s
		logger.Info("opened SQLite document store", zap.String("path", appCfg.SQLitePath))

	case BackendRedis:
		s, err := docstore.OpenRedis(ctx, appCfg.RedisURL)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to open Redis store: %w", err)
		}
		deps.Redis = s
		deps.Docs = s
		logger.Info("connected to Redis document store")

	case BackendMemory:
		deps.Docs = docstore.NewMemory()
		logger.Info("using in-memory document store")

	default:
		return DBDeps{}, fmt.Errorf("unknown store backend: %s", appCfg.StoreBackend)
	}

	deps.Services = NewServices(deps.Docs, appCfg, logger)
	return deps, nil
}

// EnsureSchema attaches the documents validator and indexes when the store
// is MongoDB. SQLite creates its table on open; memory needs nothing.
//
// The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		logger.Debug("no schema to ensure", zap.String("backend", deps.Backend))
		return nil
	}

	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
