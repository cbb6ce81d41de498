package dashboard

import (
	"errors"
	"net/http"
	"testing"
	"time"

	dashboardstore "github.com/dalemusser/stratadash/internal/app/store/dashboards"
	deploymentstore "github.com/dalemusser/stratadash/internal/app/store/deployments"
	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/app/system/catalog"
	"github.com/dalemusser/stratadash/internal/app/system/charts"
	dashsvc "github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/editor"
	"github.com/dalemusser/stratadash/internal/app/system/metricsource"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/dalemusser/stratadash/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fixture struct {
	router   http.Handler
	mem      *docstore.Memory
	sessions *editor.Manager
}

func newFixture() *fixture {
	mem := docstore.NewMemory()
	logger := zap.NewNop()
	clock := &dashsvc.FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	dashboards := dashboardstore.New(mem, logger)
	sessions := editor.NewManager(editor.Deps{
		Gateway: dashboards,
		Clock:   clock,
		IDs:     &dashsvc.SequenceIDs{Prefix: "id"},
		Logger:  logger,
	})
	h := NewHandler(
		catalog.New(dashboards, deploymentstore.New(mem, logger), logger),
		sessions,
		charts.NewRenderer(metricsource.NewMock(clock), logger),
		models.TimeRange30D,
		logger,
	)

	r := chi.NewRouter()
	r.Mount("/api/dashboards", Routes(h))
	r.Mount("/api/editor/sessions", SessionRoutes(h))
	r.Mount("/api/catalog", CatalogRoutes(h))
	return &fixture{router: r, mem: mem, sessions: sessions}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *testutil.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = testutil.NewRequest(method, target)
	} else {
		req = testutil.NewJSONRequest(t, method, target, body)
	}
	rec := testutil.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type sessionView struct {
	ID          string                 `json:"sessionId"`
	State       string                 `json:"state"`
	BaseVersion int                    `json:"baseVersion"`
	Draft       dashsvc.Input          `json:"draft"`
	Saved       *models.SavedDashboard `json:"saved"`
	Error       string                 `json:"error"`
	Retryable   bool                   `json:"retryable"`
	Conflict    bool                   `json:"conflict"`
}

// create saves a one-widget dashboard through an editor session and
// returns it.
func (f *fixture) create(t *testing.T, name string) models.SavedDashboard {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/editor/sessions", map[string]any{"mode": "new", "name": name})
	rec.AssertStatus(t, http.StatusCreated)
	var v sessionView
	rec.DecodeJSON(t, &v)

	rec = f.do(t, http.MethodPost, "/api/editor/sessions/"+v.ID+"/actions", map[string]any{
		"type":        "add_widget",
		"widgetType":  "line-chart",
		"title":       "Visits",
		"dataBinding": map[string]string{"source": "traffic", "field": "visits"},
	})
	rec.AssertStatus(t, http.StatusOK)

	rec = f.do(t, http.MethodPost, "/api/editor/sessions/"+v.ID+"/save", nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &v)
	if v.State != "saved" || v.Saved == nil {
		t.Fatalf("after save: state = %q, saved = %v", v.State, v.Saved)
	}
	f.do(t, http.MethodDelete, "/api/editor/sessions/"+v.ID, nil).AssertStatus(t, http.StatusNoContent)
	return *v.Saved
}

func TestCatalog(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/catalog", nil)
	rec.AssertStatus(t, http.StatusOK)

	var resp CatalogResponse
	rec.DecodeJSON(t, &resp)
	if len(resp.WidgetTypes) != len(models.AllWidgetTypes()) {
		t.Errorf("widgetTypes = %d, want %d", len(resp.WidgetTypes), len(models.AllWidgetTypes()))
	}
	if len(resp.DataSources) != len(models.AllDataSources()) {
		t.Errorf("dataSources = %d, want %d", len(resp.DataSources), len(models.AllDataSources()))
	}
	if resp.DefaultLayout.Columns != 12 || resp.DefaultRange != models.TimeRange30D {
		t.Errorf("defaults = %d cols, %q", resp.DefaultLayout.Columns, resp.DefaultRange)
	}
}

func TestCreateListAndRender(t *testing.T) {
	f := newFixture()
	d := f.create(t, "Sales")
	if d.Version != 1 || d.WidgetCount != 1 || d.Widgets[0].Title != "Visits" {
		t.Fatalf("saved = %+v", d)
	}
	if f.sessions.Len() != 0 {
		t.Errorf("open sessions = %d, want 0", f.sessions.Len())
	}

	rec := f.do(t, http.MethodGet, "/api/dashboards?sort=name", nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"count":1`)
	rec.AssertContains(t, `"deployed":false`)

	rec = f.do(t, http.MethodGet, "/api/dashboards/"+d.ID+"/data?range=7d", nil)
	rec.AssertStatus(t, http.StatusOK)
	var data struct {
		Range   string        `json:"range"`
		Widgets []charts.View `json:"widgets"`
	}
	rec.DecodeJSON(t, &data)
	if data.Range != "7d" || len(data.Widgets) != 1 {
		t.Fatalf("data = %+v", data)
	}
	if w := data.Widgets[0]; w.Kind != charts.KindSeries || len(w.Series) == 0 || len(w.Series[0].Points) != 7 {
		t.Errorf("widget view = %+v, want a 7-point series", w)
	}

	rec = f.do(t, http.MethodGet, "/api/dashboards/"+d.ID+"/data", nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"range":"30d"`)
}

func TestLayout(t *testing.T) {
	f := newFixture()
	d := f.create(t, "Layout")

	rec := f.do(t, http.MethodGet, "/api/dashboards/"+d.ID+"/layout?width=800", nil)
	rec.AssertStatus(t, http.StatusOK)
	var one struct {
		Placement struct {
			Breakpoint models.Breakpoint `json:"breakpoint"`
			Columns    int               `json:"columns"`
			Items      []struct {
				ID string `json:"id"`
				W  int    `json:"w"`
			} `json:"items"`
		} `json:"placement"`
	}
	rec.DecodeJSON(t, &one)
	if one.Placement.Breakpoint.Name != "sm" || one.Placement.Columns != 6 {
		t.Errorf("placement = %+v, want sm with 6 columns", one.Placement)
	}
	if len(one.Placement.Items) != 1 || one.Placement.Items[0].W != 3 {
		t.Errorf("items = %+v, want one item 3 wide", one.Placement.Items)
	}

	rec = f.do(t, http.MethodGet, "/api/dashboards/"+d.ID+"/layout?all=1", nil)
	rec.AssertStatus(t, http.StatusOK)
	var all struct {
		Placements []struct{} `json:"placements"`
	}
	rec.DecodeJSON(t, &all)
	if len(all.Placements) != 4 {
		t.Errorf("placements = %d, want 4", len(all.Placements))
	}

	f.do(t, http.MethodGet, "/api/dashboards/"+d.ID+"/layout?width=wide", nil).AssertStatus(t, http.StatusBadRequest)
	f.do(t, http.MethodGet, "/api/dashboards/missing/layout", nil).AssertStatus(t, http.StatusNotFound)
}

func TestListValidation(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/api/dashboards?sort=size", nil)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, `"sort"`)

	f.do(t, http.MethodGet, "/api/dashboards/x/data?range=1y", nil).AssertStatus(t, http.StatusBadRequest)
}

func TestDeleteAndGet(t *testing.T) {
	f := newFixture()
	d := f.create(t, "Doomed")

	f.do(t, http.MethodGet, "/api/dashboards/"+d.ID, nil).AssertStatus(t, http.StatusOK)
	f.do(t, http.MethodDelete, "/api/dashboards/"+d.ID, nil).AssertStatus(t, http.StatusNoContent)
	f.do(t, http.MethodGet, "/api/dashboards/"+d.ID, nil).AssertStatus(t, http.StatusNotFound)
}

func TestDuplicate(t *testing.T) {
	f := newFixture()
	d := f.create(t, "Sales")

	rec := f.do(t, http.MethodPost, "/api/dashboards/"+d.ID+"/duplicate", map[string]string{"ownerId": "u-2"})
	rec.AssertStatus(t, http.StatusCreated)
	var dup models.SavedDashboard
	rec.DecodeJSON(t, &dup)
	if dup.ID == d.ID || dup.Name != "Copy of Sales" || dup.OwnerID != "u-2" || dup.Version != 1 || dup.WidgetCount != 1 {
		t.Errorf("duplicate = %+v", dup)
	}
	if f.sessions.Len() != 0 {
		t.Errorf("open sessions = %d, want 0", f.sessions.Len())
	}

	f.do(t, http.MethodPost, "/api/dashboards/"+d.ID+"/duplicate", nil).AssertStatus(t, http.StatusCreated)
	f.do(t, http.MethodPost, "/api/dashboards/missing/duplicate", nil).AssertStatus(t, http.StatusNotFound)
}

func TestOpenSession_Validation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing mode", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"bad mode", map[string]any{"mode": "view"}, http.StatusBadRequest},
		{"edit without id", map[string]any{"mode": "edit"}, http.StatusBadRequest},
		{"bad visibility", map[string]any{"mode": "new", "visibility": "everyone"}, http.StatusBadRequest},
		{"malformed", "{", http.StatusBadRequest},
		{"edit missing dashboard", map[string]any{"mode": "edit", "dashboardId": "nope"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.do(t, http.MethodPost, "/api/editor/sessions", tt.body).AssertStatus(t, tt.want)
		})
	}
	if f.sessions.Len() != 0 {
		t.Errorf("open sessions = %d, want 0", f.sessions.Len())
	}
}

func TestSession_Actions(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/api/editor/sessions", map[string]any{"mode": "new"})
	var v sessionView
	rec.DecodeJSON(t, &v)
	base := "/api/editor/sessions/" + v.ID

	f.do(t, http.MethodGet, base, nil).AssertStatus(t, http.StatusOK)
	f.do(t, http.MethodPost, base+"/actions", map[string]any{"type": "explode"}).AssertStatus(t, http.StatusBadRequest)
	f.do(t, http.MethodPost, base+"/actions", map[string]any{"type": "remove_widget", "widgetId": "ghost"}).AssertStatus(t, http.StatusBadRequest)

	rec = f.do(t, http.MethodPost, base+"/actions", map[string]any{
		"type":        "add_widget",
		"widgetType":  "pie-chart",
		"dataBinding": map[string]string{"source": "weather", "field": "rain"},
	})
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "fields")

	rec = f.do(t, http.MethodPost, base+"/actions", map[string]any{"type": "update_metadata", "name": "  "})
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, `"name"`)

	// An unnamed draft cannot be saved but stays editable.
	rec = f.do(t, http.MethodPost, base+"/save", nil)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, `"name"`)
	rec = f.do(t, http.MethodGet, base, nil)
	rec.DecodeJSON(t, &v)
	if v.State != "ready" {
		t.Errorf("state after rejected save = %q, want ready", v.State)
	}

	f.do(t, http.MethodPost, base+"/continue", nil).AssertStatus(t, http.StatusConflict)
	f.do(t, http.MethodDelete, base, nil).AssertStatus(t, http.StatusNoContent)
	f.do(t, http.MethodGet, base, nil).AssertStatus(t, http.StatusNotFound)
	f.do(t, http.MethodDelete, base, nil).AssertStatus(t, http.StatusNotFound)
}

func TestSession_SaveFailureAndRetry(t *testing.T) {
	f := newFixture()
	d := f.create(t, "Ops")

	rec := f.do(t, http.MethodPost, "/api/editor/sessions", map[string]any{"mode": "edit", "dashboardId": d.ID})
	rec.AssertStatus(t, http.StatusCreated)
	var v sessionView
	rec.DecodeJSON(t, &v)
	if v.BaseVersion != 1 || len(v.Draft.Widgets) != 1 {
		t.Fatalf("edit session = %+v", v)
	}
	base := "/api/editor/sessions/" + v.ID

	f.do(t, http.MethodPost, base+"/actions", map[string]any{"type": "update_metadata", "name": "Ops v2"}).AssertStatus(t, http.StatusOK)

	f.mem.SetFailWrites(errors.New("disk full"))
	rec = f.do(t, http.MethodPost, base+"/save", nil)
	rec.AssertStatus(t, http.StatusServiceUnavailable)
	rec.AssertContains(t, `"retryable":true`)

	rec = f.do(t, http.MethodGet, base, nil)
	rec.DecodeJSON(t, &v)
	if v.State != "failed" || !v.Retryable || v.Draft.Name != "Ops v2" {
		t.Errorf("after failure = %+v", v)
	}

	f.mem.SetFailWrites(nil)
	rec = f.do(t, http.MethodPost, base+"/save", nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &v)
	if v.Saved == nil || v.Saved.Version != 2 || v.Saved.Name != "Ops v2" {
		t.Errorf("after retry = %+v", v.Saved)
	}

	f.do(t, http.MethodPost, base+"/continue", nil).AssertStatus(t, http.StatusOK)
}

func TestSession_Conflict(t *testing.T) {
	f := newFixture()
	d := f.create(t, "Shared")

	open := func() string {
		rec := f.do(t, http.MethodPost, "/api/editor/sessions", map[string]any{"mode": "edit", "dashboardId": d.ID})
		var v sessionView
		rec.DecodeJSON(t, &v)
		return "/api/editor/sessions/" + v.ID
	}
	first, second := open(), open()

	f.do(t, http.MethodPost, first+"/actions", map[string]any{"type": "update_metadata", "name": "First"}).AssertStatus(t, http.StatusOK)
	f.do(t, http.MethodPost, second+"/actions", map[string]any{"type": "update_metadata", "name": "Second"}).AssertStatus(t, http.StatusOK)

	f.do(t, http.MethodPost, first+"/save", nil).AssertStatus(t, http.StatusOK)
	f.do(t, http.MethodPost, second+"/save", nil).AssertStatus(t, http.StatusConflict)

	rec := f.do(t, http.MethodGet, "/api/dashboards/"+d.ID, nil)
	var got models.SavedDashboard
	rec.DecodeJSON(t, &got)
	if got.Name != "First" || got.Version != 2 {
		t.Errorf("stored = %q v%d, want First v2", got.Name, got.Version)
	}
}
