// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadash/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger is the storage backend being checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LastWriter is implemented by stores that can report their most recent
// write. Check includes it when available.
type LastWriter interface {
	LastWrite(ctx context.Context) (time.Time, error)
}

// SessionCounter reports open editor sessions.
type SessionCounter interface {
	Len() int
}

// Handler provides health check endpoints.
type Handler struct {
	store    Pinger
	backend  string
	sessions SessionCounter
	logger   *zap.Logger
}

// NewHandler creates a health Handler. backend names the store in responses
// ("mongo", "sqlite", "memory"); sessions may be nil.
func NewHandler(store Pinger, backend string, sessions SessionCounter, logger *zap.Logger) *Handler {
	return &Handler{store: store, backend: backend, sessions: sessions, logger: logger}
}

// Response is the body of a full health check.
type Response struct {
	Status         string            `json:"status"`
	Services       map[string]string `json:"services,omitempty"`
	EditorSessions *int              `json:"editorSessions,omitempty"`
	LastWrite      *time.Time        `json:"lastWrite,omitempty"`
}

// Routes mounts /, /ready and /live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe paths orchestrators expect at the root:
// /ready, /readyz and /livez.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	return h.store.Ping(ctx)
}

// lastWrite asks the store for its latest write. Failures only drop the
// field from the response.
func (h *Handler) lastWrite(ctx context.Context) *time.Time {
	lw, ok := h.store.(LastWriter)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	ts, err := lw.LastWrite(ctx)
	if err != nil {
		h.logger.Debug("health check: last write unavailable", zap.Error(err))
		return nil
	}
	if ts.IsZero() {
		return nil
	}
	return &ts
}

// Check reports storage status, the number of open editor sessions and, on
// stores that track it, the time of the latest write.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: "ok", Services: map[string]string{}}

	if err := h.ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Services[h.backend] = "unavailable"
		h.logger.Warn("health check: store ping failed",
			zap.String("backend", h.backend),
			zap.Error(err))
	} else {
		resp.Services[h.backend] = "ok"
		resp.LastWrite = h.lastWrite(r.Context())
	}
	if h.sessions != nil {
		n := h.sessions.Len()
		resp.EditorSessions = &n
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready answers readiness probes: ready once storage responds.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live answers liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
