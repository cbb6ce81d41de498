// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/apicors"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATADASH"

// Document store backends.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_backend, mongo_uri, etc.
//   - Environment variables: STRATADASH_STORE_BACKEND, STRATADASH_MONGO_URI, etc.
//   - Command-line flags: --store_backend, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMongo, Desc: "Document store backend: 'mongo', 'sqlite', 'redis' or 'memory'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratadash", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "sqlite_path", Default: "./stratadash.db", Desc: "SQLite database file (store_backend=sqlite)"},
	{Name: "redis_url", Default: "redis://localhost:6379/0", Desc: "Redis URL (store_backend=redis)"},

	// Editor
	{Name: "save_delay", Default: "0s", Desc: "Simulated persistence latency before each save (e.g., 500ms)"},
	{Name: "editor_idle_timeout", Default: "2h", Desc: "Close editor sessions idle this long"},
	{Name: "editor_reap_interval", Default: "5m", Desc: "How often idle editor sessions are checked"},

	{Name: "default_time_range", Default: string(models.TimeRange30D), Desc: "Default dashboard data range: 7d, 30d, 90d or 12m"},
	{Name: "seed_demo_dashboards", Default: false, Desc: "Create demo dashboards when the store is empty"},
	{Name: "api_request_timeout", Default: "30s", Desc: "Per-request timeout for the JSON API"},
	{Name: "api_cors_origins", Default: "", Desc: "Comma-separated origins allowed to call /api ('*' for any)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STRATADASH_* for app) and
// command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend: appValues.String("store_backend"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SQLitePath: appValues.String("sqlite_path"),
		RedisURL:   appValues.String("redis_url"),

		SaveDelay:          appValues.Duration("save_delay", 0),
		EditorIdleTimeout:  appValues.Duration("editor_idle_timeout", 2*time.Hour),
		EditorReapInterval: appValues.Duration("editor_reap_interval", 5*time.Minute),

		DefaultTimeRange:   appValues.String("default_time_range"),
		SeedDemoDashboards: appValues.Bool("seed_demo_dashboards"),
		APIRequestTimeout:  appValues.Duration("api_request_timeout", 30*time.Second),
		APICORSOrigins:     apicors.ParseOrigins(appValues.String("api_cors_origins")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	case BackendSQLite:
		if appCfg.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required when store_backend is %q", BackendSQLite)
		}
	case BackendRedis:
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
	case BackendMemory:
		logger.Warn("using in-memory document store; dashboards are lost on restart")
	default:
		return fmt.Errorf("unknown store_backend %q (want mongo, sqlite, redis or memory)", appCfg.StoreBackend)
	}

	if !models.IsValidTimeRange(models.TimeRange(appCfg.DefaultTimeRange)) {
		return fmt.Errorf("invalid default_time_range %q", appCfg.DefaultTimeRange)
	}
	if appCfg.SaveDelay < 0 {
		return fmt.Errorf("save_delay must not be negative")
	}
	if appCfg.EditorIdleTimeout <= 0 || appCfg.EditorReapInterval <= 0 {
		return fmt.Errorf("editor_idle_timeout and editor_reap_interval must be positive")
	}
	if appCfg.APIRequestTimeout <= 0 {
		return fmt.Errorf("api_request_timeout must be positive")
	}
	return nil
}
