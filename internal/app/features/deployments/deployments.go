// Package deployments serves the deployed-dashboard set.
//
// Endpoints, when mounted at /api/deployments:
//   - GET    /      deployed dashboards in deployment order
//   - PUT    /{id}  deploy a dashboard (idempotent)
//   - DELETE /{id}  undeploy a dashboard (idempotent)
package deployments

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/stratadash/internal/app/system/catalog"
	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadash/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves deployment requests.
type Handler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// NewHandler creates a deployments handler.
func NewHandler(cat *catalog.Service, logger *zap.Logger) *Handler {
	return &Handler{catalog: cat, logger: logger}
}

// Routes returns the deployments router.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Put("/{id}", h.deploy)
	r.Delete("/{id}", h.undeploy)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entries, err := h.catalog.ListDeployed(ctx)
	if err != nil {
		h.logger.Error("failed to list deployments", zap.Error(err))
		jsonutil.InternalError(w, "failed to list deployments")
		return
	}
	jsonutil.OK(w, map[string]any{"dashboards": entries, "count": len(entries)})
}

func (h *Handler) deploy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.catalog.Deploy(ctx, id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		jsonutil.NotFound(w, "dashboard not found")
	case err != nil:
		h.logger.Error("failed to deploy dashboard", zap.String("dashboard_id", id), zap.Error(err))
		jsonutil.InternalError(w, "failed to deploy dashboard")
	default:
		jsonutil.OK(w, map[string]any{"id": id, "deployed": true})
	}
}

func (h *Handler) undeploy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.catalog.Undeploy(ctx, id); err != nil {
		h.logger.Error("failed to undeploy dashboard", zap.String("dashboard_id", id), zap.Error(err))
		jsonutil.InternalError(w, "failed to undeploy dashboard")
		return
	}
	jsonutil.NoContent(w)
}
