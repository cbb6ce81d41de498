package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/domain/models"
)

func openNew(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), "s", newFixture().deps, ModeNew, "", dashboard.Input{Name: "Board"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func positions(s *Session) map[string]models.Position {
	out := map[string]models.Position{}
	for _, w := range s.View().Draft.Widgets {
		out[w.ID] = w.Position
	}
	return out
}

func TestAddWidget(t *testing.T) {
	s := openNew(t)
	mustApply(t, s, lineChart("visits"))
	mustApply(t, s, AddWidget{
		Type:        models.WidgetMetricCard,
		Title:       "<b>Revenue</b>",
		DataBinding: models.DataBinding{Source: models.SourceRevenue, Field: "total"},
	})
	mustApply(t, s, AddWidget{
		Type:        models.WidgetPieChart,
		DataBinding: models.DataBinding{Source: models.SourceDemographics, Field: "age"},
		Position:    &models.Position{X: 8, Y: 0, W: 4, H: 4},
	})

	v := s.View()
	if len(v.Draft.Widgets) != 3 {
		t.Fatalf("widgets = %d, want 3", len(v.Draft.Widgets))
	}
	pos := positions(s)
	if got, want := pos["id-1"], (models.Position{X: 0, Y: 0, W: 6, H: 4}); got != want {
		t.Errorf("line chart at %+v, want %+v", got, want)
	}
	if got, want := pos["id-2"], (models.Position{X: 0, Y: 4, W: 3, H: 2}); got != want {
		t.Errorf("metric card at %+v, want %+v", got, want)
	}
	if got, want := pos["id-3"], (models.Position{X: 8, Y: 0, W: 4, H: 4}); got != want {
		t.Errorf("pie chart at %+v, want %+v", got, want)
	}
	if v.Draft.Widgets[1].Title != "Revenue" {
		t.Errorf("title = %q, want tags stripped", v.Draft.Widgets[1].Title)
	}
	if v.Draft.Widgets[2].Title != "Pie chart" {
		t.Errorf("empty title = %q, want type label", v.Draft.Widgets[2].Title)
	}
}

func TestAddWidget_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		a     AddWidget
		field string
	}{
		{"unknown type", AddWidget{Type: "treemap", DataBinding: models.DataBinding{Source: models.SourceSEO, Field: "rank"}}, "type"},
		{"unknown source", AddWidget{Type: models.WidgetTable, DataBinding: models.DataBinding{Source: "weather", Field: "temp"}}, "dataBinding.source"},
		{"empty field", AddWidget{Type: models.WidgetTable, DataBinding: models.DataBinding{Source: models.SourceSEO}}, "dataBinding.field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openNew(t)
			err := s.Apply(tt.a)
			fields, ok := ValidationFields(err)
			if !ok || fields[tt.field] == "" {
				t.Fatalf("Apply() error = %v, want validation error on %s", err, tt.field)
			}
			if n := len(s.View().Draft.Widgets); n != 0 {
				t.Errorf("draft widgets = %d after rejected add, want 0", n)
			}
		})
	}
}

func TestMoveResizeRemove(t *testing.T) {
	s := openNew(t)
	mustApply(t, s, lineChart("a"))
	mustApply(t, s, lineChart("b"))

	mustApply(t, s, MoveWidget{WidgetID: "id-2", X: 6, Y: 0})
	if got, want := positions(s)["id-2"], (models.Position{X: 6, Y: 0, W: 6, H: 4}); got != want {
		t.Errorf("after move = %+v, want %+v", got, want)
	}

	mustApply(t, s, ResizeWidget{WidgetID: "id-1", W: 12, H: 2})
	pos := positions(s)
	if got, want := pos["id-1"], (models.Position{X: 0, Y: 0, W: 12, H: 2}); got != want {
		t.Errorf("resized = %+v, want %+v", got, want)
	}
	if got := pos["id-2"]; got.Y < 2 {
		t.Errorf("neighbour at %+v still overlaps resized widget", got)
	}

	mustApply(t, s, RemoveWidget{WidgetID: "id-1"})
	pos = positions(s)
	if len(pos) != 1 {
		t.Fatalf("widgets after remove = %d, want 1", len(pos))
	}
	if got := pos["id-2"]; got.Y != 0 {
		t.Errorf("remaining widget y = %d, want compacted to 0", got.Y)
	}

	for _, a := range []Action{
		RemoveWidget{WidgetID: "nope"},
		MoveWidget{WidgetID: "nope"},
		ResizeWidget{WidgetID: "nope", W: 1, H: 1},
		ReconfigureWidget{WidgetID: "nope"},
	} {
		if err := s.Apply(a); !errors.Is(err, ErrUnknownWidget) {
			t.Errorf("Apply(%s) on unknown widget error = %v, want ErrUnknownWidget", a.Kind(), err)
		}
	}
	if err := s.Apply(ResizeWidget{WidgetID: "id-2", W: 0, H: 3}); err == nil {
		t.Error("Apply(resize to zero width) error = nil")
	}
}

func TestReconfigureWidget(t *testing.T) {
	s := openNew(t)
	mustApply(t, s, lineChart("visits"))

	title := "Sessions"
	mustApply(t, s, ReconfigureWidget{
		WidgetID:     "id-1",
		Title:        &title,
		DataBinding:  &models.DataBinding{Source: models.SourceTraffic, Field: "sessions"},
		ChartOptions: &models.ChartOptions{Smooth: models.BoolPtr(false)},
	})
	w := s.View().Draft.Widgets[0]
	if w.Title != "Sessions" || w.Config.DataBinding.Field != "sessions" {
		t.Errorf("widget = %+v, want reconfigured", w)
	}
	if w.Config.ChartOptions.Smooth == nil || *w.Config.ChartOptions.Smooth {
		t.Errorf("smooth = %v, want false", w.Config.ChartOptions.Smooth)
	}

	bad := models.StringPtr("diagonal")
	if err := s.Apply(ReconfigureWidget{WidgetID: "id-1", ChartOptions: &models.ChartOptions{Orientation: bad}}); err == nil {
		t.Error("Apply(bad orientation) error = nil")
	}
}

func TestUpdateMetadataAndLayout(t *testing.T) {
	s := openNew(t)
	name := "  Growth  "
	desc := `<p>Weekly <script>x()</script>numbers</p>`
	vis := models.VisibilityTeam
	mustApply(t, s, UpdateMetadata{Name: &name, Description: &desc, Visibility: &vis, Tags: []string{"kpi", "KPI", " growth "}})

	d := s.View().Draft
	if d.Name != "Growth" || d.Visibility != models.VisibilityTeam {
		t.Errorf("metadata = %q %q", d.Name, d.Visibility)
	}
	if d.Description != "<p>Weekly numbers</p>" {
		t.Errorf("description = %q", d.Description)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "kpi" || d.Tags[1] != "growth" {
		t.Errorf("tags = %v, want [kpi growth]", d.Tags)
	}

	badVis := models.Visibility("everyone")
	if err := s.Apply(UpdateMetadata{Visibility: &badVis}); err == nil {
		t.Error("Apply(bad visibility) error = nil")
	}

	ct := models.CompactNone
	rh := 100
	mustApply(t, s, UpdateLayout{CompactType: &ct, RowHeight: &rh})
	l := s.View().Draft.Layout
	if l.CompactType != models.CompactNone || l.RowHeight != 100 {
		t.Errorf("layout = %+v", l)
	}
	zero := 0
	if err := s.Apply(UpdateLayout{RowHeight: &zero}); err == nil {
		t.Error("Apply(rowHeight 0) error = nil")
	}
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"add_widget","widgetType":"bar-chart","title":"Orders","dataBinding":{"source":"conversions","field":"orders"}}`))
	if err != nil {
		t.Fatalf("DecodeAction() error = %v", err)
	}
	add, ok := a.(AddWidget)
	if !ok || add.Type != models.WidgetBarChart || add.DataBinding.Field != "orders" {
		t.Errorf("DecodeAction() = %#v", a)
	}

	a, err = DecodeAction([]byte(`{"type":"move_widget","widgetId":"w1","x":3,"y":2}`))
	if err != nil {
		t.Fatalf("DecodeAction(move) error = %v", err)
	}
	if mv, ok := a.(MoveWidget); !ok || mv.X != 3 || mv.Y != 2 {
		t.Errorf("DecodeAction(move) = %#v", a)
	}

	for _, raw := range []string{`{"type":"explode"}`, `{}`} {
		if _, err := DecodeAction([]byte(raw)); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("DecodeAction(%s) error = %v, want ErrUnknownAction", raw, err)
		}
	}
	if _, err := DecodeAction([]byte(`not json`)); err == nil {
		t.Error("DecodeAction(not json) error = nil")
	}
}
