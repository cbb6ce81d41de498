// Package timeouts provides centralized timeout values for handler and job operations.
//
// Values start at the Default* constants and can be changed once at startup
// with Configure or ConfigureFromEnv. Readers take a read lock, so handlers
// may call the getters on every request.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing      = 2 * time.Second
	DefaultShort     = 5 * time.Second
	DefaultRender    = 15 * time.Second
	DefaultReconcile = 30 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping      = DefaultPing
	short     = DefaultShort
	render    = DefaultRender
	reconcile = DefaultReconcile
)

// Ping returns the timeout for store health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document store operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Render returns the timeout for fetching and rendering every widget of a dashboard.
func Render() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return render
}

// Reconcile returns the timeout for one deployment reconcile pass.
func Reconcile() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return reconcile
}

// Config holds timeout configuration values. Zero fields keep the current value.
type Config struct {
	Ping      time.Duration
	Short     time.Duration
	Render    time.Duration
	Reconcile time.Duration
}

// Configure sets custom timeout values. Zero or negative fields leave the
// current value in place, so a partial Config only changes what it names.
// Call it during startup, before handlers begin reading the values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Render > 0 {
		render = cfg.Render
	}
	if cfg.Reconcile > 0 {
		reconcile = cfg.Reconcile
	}
}

// ConfigureFromEnv reads STRATADASH_TIMEOUT_PING, _SHORT, _RENDER and
// _RECONCILE. Unparseable or non-positive values are ignored. It returns how
// many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	configured := 0
	read := func(name string, dst *time.Duration) {
		v := os.Getenv("STRATADASH_TIMEOUT_" + name)
		if v == "" {
			return
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			configured++
		}
	}
	read("PING", &cfg.Ping)
	read("SHORT", &cfg.Short)
	read("RENDER", &cfg.Render)
	read("RECONCILE", &cfg.Reconcile)
	Configure(cfg)
	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:      ping,
		Short:     short,
		Render:    render,
		Reconcile: reconcile,
	}
}

// WithTimeout creates a context with timeout and logs when the deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
