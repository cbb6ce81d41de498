package dashboard

import (
	"net/http"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/editor"
	"github.com/dalemusser/stratadash/internal/app/system/inputval"
	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SessionRoutes returns the editor session router.
//
// When mounted at /api/editor/sessions:
//   - POST   /               open a session ({"mode":"new"|"edit", ...})
//   - GET    /{sid}          current session view
//   - POST   /{sid}/actions  apply one edit action
//   - POST   /{sid}/save     save the draft (?async=1 returns 202 while saving)
//   - POST   /{sid}/continue keep editing after a save
//   - DELETE /{sid}          close the session
func SessionRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.openSession)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Post("/actions", h.applyAction)
		r.Post("/save", h.saveSession)
		r.Post("/continue", h.continueSession)
		r.Delete("/", h.closeSession)
	})
	return r
}

type openSessionRequest struct {
	Mode             string   `json:"mode" validate:"required,sessionmode" label:"Mode"`
	DashboardID      string   `json:"dashboardId" validate:"max=100" label:"Dashboard"`
	Name             string   `json:"name" validate:"max=200" label:"Name"`
	Description      string   `json:"description"`
	OwnerID          string   `json:"ownerId" validate:"max=100" label:"Owner"`
	Visibility       string   `json:"visibility" validate:"visibility" label:"Visibility"`
	IsTemplate       bool     `json:"isTemplate"`
	DefaultTimeRange string   `json:"defaultTimeRange" validate:"timerange" label:"Default time range"`
	Tags             []string `json:"tags"`
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}
	mode := editor.Mode(req.Mode)
	if mode == editor.ModeEdit && req.DashboardID == "" {
		jsonutil.ValidationError(w, map[string]string{"dashboardId": "Dashboard is required when editing."})
		return
	}

	seed := dashboard.Input{
		Name:             req.Name,
		Description:      req.Description,
		OwnerID:          req.OwnerID,
		Visibility:       models.Visibility(req.Visibility),
		IsTemplate:       req.IsTemplate,
		DefaultTimeRange: models.TimeRange(req.DefaultTimeRange),
		Tags:             req.Tags,
	}
	s, err := h.sessions.Open(r.Context(), mode, req.DashboardID, seed)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if s.State() == editor.StateNotFound {
		jsonutil.NotFound(w, "dashboard not found")
		return
	}
	jsonutil.Created(w, s.View())
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, s.View())
}

func (h *Handler) applyAction(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	body, err := jsonutil.ReadBody(r)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	a, err := editor.DecodeAction(body)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if err := s.Apply(a); err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.OK(w, s.View())
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("async") == "1" {
		sid := s.ID()
		err := s.SaveAsync(r.Context(), func(d models.SavedDashboard, err error) {
			if err != nil {
				h.logger.Warn("background save failed", zap.String("session_id", sid), zap.Error(err))
			}
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		jsonutil.JSON(w, http.StatusAccepted, s.View())
		return
	}

	if _, err := s.Save(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.OK(w, s.View())
}

func (h *Handler) continueSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Continue(); err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.OK(w, s.View())
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sid")); err != nil {
		h.writeError(w, err)
		return
	}
	jsonutil.NoContent(w)
}
