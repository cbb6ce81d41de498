// Package dashboard serves the dashboard JSON API.
//
// Endpoints, when mounted at /api/dashboards:
//   - GET    /                  list dashboards (?sort=updated|created|name&tag=&templates=only|exclude)
//   - GET    /{id}              one dashboard with its deployment state
//   - DELETE /{id}              delete a dashboard and undeploy it
//   - GET    /{id}/layout       resolved grid placement (?width=N or ?all=1)
//   - GET    /{id}/data         render every widget (?range=7d|30d|90d|12m)
//   - POST   /{id}/duplicate    save a copy named "Copy of <name>"
//
// Editor sessions and the widget catalogue are served by SessionRoutes and
// CatalogRoutes in this package.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratadash/internal/app/system/catalog"
	"github.com/dalemusser/stratadash/internal/app/system/charts"
	"github.com/dalemusser/stratadash/internal/app/system/editor"
	"github.com/dalemusser/stratadash/internal/app/system/gridlayout"
	"github.com/dalemusser/stratadash/internal/app/system/inputval"
	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadash/internal/app/system/timeouts"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves dashboards, editor sessions and the widget catalogue.
type Handler struct {
	catalog      *catalog.Service
	sessions     *editor.Manager
	renderer     *charts.Renderer
	defaultRange models.TimeRange
	logger       *zap.Logger
}

// NewHandler creates a dashboard handler. defaultRange is used for data
// requests on dashboards that carry no default of their own.
func NewHandler(cat *catalog.Service, sessions *editor.Manager, renderer *charts.Renderer, defaultRange models.TimeRange, logger *zap.Logger) *Handler {
	if !models.IsValidTimeRange(defaultRange) {
		defaultRange = models.TimeRange30D
	}
	return &Handler{
		catalog:      cat,
		sessions:     sessions,
		renderer:     renderer,
		defaultRange: defaultRange,
		logger:       logger,
	}
}

// Routes returns the dashboard router.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.remove)
		r.Get("/layout", h.layout)
		r.Get("/data", h.data)
		r.Post("/duplicate", h.duplicate)
	})
	return r
}

type listQuery struct {
	Sort      string `json:"sort" validate:"listsort" label:"Sort"`
	Tag       string `json:"tag" validate:"max=50" label:"Tag"`
	Templates string `json:"templates" validate:"templatefilter" label:"Templates"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listQuery{Sort: q.Get("sort"), Tag: q.Get("tag"), Templates: q.Get("templates")}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entries, err := h.catalog.List(ctx, catalog.ListOptions{
		Sort:      req.Sort,
		Tag:       req.Tag,
		Templates: req.Templates,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"dashboards": entries, "count": len(entries)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.OK(w, e)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.catalog.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.NoContent(w)
}

func (h *Handler) layout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if r.URL.Query().Get("all") == "1" {
		jsonutil.OK(w, map[string]any{
			"dashboardId": e.ID,
			"placements":  gridlayout.ResolveAll(e.Layout, e.Widgets),
		})
		return
	}

	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		width, err = strconv.Atoi(raw)
		if err != nil || width < 0 {
			jsonutil.ValidationError(w, map[string]string{"width": "width must be a non-negative integer"})
			return
		}
	}
	jsonutil.OK(w, map[string]any{
		"dashboardId": e.ID,
		"placement":   gridlayout.Resolve(e.Layout, e.Widgets, width),
	})
}

type dataQuery struct {
	Range string `json:"range" validate:"timerange" label:"Time range"`
}

func (h *Handler) data(w http.ResponseWriter, r *http.Request) {
	req := dataQuery{Range: r.URL.Query().Get("range")}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Render(), h.logger, "render dashboard")
	defer cancel()

	e, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	tr := models.TimeRange(req.Range)
	if tr == "" {
		tr = e.DefaultTimeRange
	}
	if tr == "" {
		tr = h.defaultRange
	}

	views, err := h.renderer.RenderAll(ctx, e.Widgets, tr)
	if err != nil {
		jsonutil.Unavailable(w, "request cancelled before all widgets rendered", true)
		return
	}
	jsonutil.OK(w, map[string]any{
		"dashboardId": e.ID,
		"range":       tr,
		"widgets":     views,
	})
}

type duplicateRequest struct {
	OwnerID string `json:"ownerId" validate:"max=100" label:"Owner"`
}

func (h *Handler) duplicate(w http.ResponseWriter, r *http.Request) {
	body, err := jsonutil.ReadBody(r)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	var req duplicateRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			jsonutil.BadRequest(w, "invalid JSON: "+err.Error())
			return
		}
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	s, err := h.sessions.Duplicate(r.Context(), chi.URLParam(r, "id"), req.OwnerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer func() { _ = h.sessions.Close(s.ID()) }()

	saved, err := s.Save(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("dashboard duplicated",
		zap.String("source_id", chi.URLParam(r, "id")),
		zap.String("dashboard_id", saved.ID))
	jsonutil.Created(w, saved)
}
