// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings: ports, TLS, logging, CORS and body limits.
//
// AppConfig is passed to most lifecycle hooks, so anything needed during
// startup, request handling, or shutdown lives here.
type AppConfig struct {
	// Document store backend: "mongo", "sqlite", "redis" or "memory".
	StoreBackend string

	// MongoDB connection configuration (StoreBackend "mongo")
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// SQLite database file (StoreBackend "sqlite")
	SQLitePath string

	// Redis connection URL (StoreBackend "redis"), e.g. redis://localhost:6379/0
	RedisURL string

	// Editor configuration
	SaveDelay          time.Duration // Simulated persistence latency before each save (default: 0)
	EditorIdleTimeout  time.Duration // Close editor sessions untouched this long (default: 2h)
	EditorReapInterval time.Duration // How often idle sessions are checked (default: 5m)

	// Dashboard data
	DefaultTimeRange string // Range used when neither request nor dashboard names one (default: 30d)

	// Seed demo dashboards into an empty store at startup
	SeedDemoDashboards bool

	// Per-request timeout for the JSON API (default: 30s)
	APIRequestTimeout time.Duration

	// Origins allowed to call /api from a browser; "*" allows any.
	// Empty leaves /api under WAFFLE's core CORS settings.
	APICORSOrigins []string
}
