// Package charts turns a widget and its fetched data into a render view
// for the chart components. Each data shape has one variant; widget types
// without a variant get the placeholder.
package charts

import (
	"fmt"
	"strconv"

	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
)

// Kind names a variant in a View.
type Kind string

const (
	KindSeries      Kind = "series"
	KindScalar      Kind = "scalar"
	KindCategorical Kind = "categorical"
	KindMatrix      Kind = "matrix"
	KindTable       Kind = "table"
	KindPlaceholder Kind = "placeholder"
	KindError       Kind = "error"
)

// Scalar is the payload of a scalar view.
type Scalar struct {
	Value    float64  `json:"value"`
	Previous *float64 `json:"previous,omitempty"`
	// DeltaPct is the change from Previous in percent. Unset when there is
	// no previous value or it is zero.
	DeltaPct *float64 `json:"deltaPct,omitempty"`
	Display  string   `json:"display"`
}

// View is everything a chart component needs to draw one widget.
type View struct {
	WidgetID   string                       `json:"widgetId"`
	Type       models.WidgetType            `json:"type"`
	Title      string                       `json:"title"`
	Kind       Kind                         `json:"kind"`
	Options    widgetconfig.ResolvedOptions `json:"options"`
	Empty      bool                         `json:"empty"`
	Message    string                       `json:"message,omitempty"`
	Series     []Series                     `json:"series,omitempty"`
	Scalar     *Scalar                      `json:"scalar,omitempty"`
	Categories []Point                      `json:"categories,omitempty"`
	Matrix     *Matrix                      `json:"matrix,omitempty"`
	Table      *Table                       `json:"table,omitempty"`
}

// Variant builds a View from a widget and its data. Build must not fail;
// missing data yields an empty view.
type Variant interface {
	Kind() Kind
	// NeedsData reports whether the widget's binding should be fetched.
	NeedsData() bool
	Build(w models.Widget, d Data) View
}

var variants = map[widgetconfig.Shape]Variant{
	widgetconfig.ShapeSeries:      seriesVariant{},
	widgetconfig.ShapeScalar:      scalarVariant{},
	widgetconfig.ShapeCategorical: categoricalVariant{},
	widgetconfig.ShapeMatrix:      matrixVariant{},
	widgetconfig.ShapeTable:       tableVariant{},
}

// For returns the variant for a widget type. Types outside the catalogue
// get the placeholder.
func For(t models.WidgetType) Variant {
	if !models.IsValidWidgetType(t) {
		return placeholderVariant{}
	}
	if v, ok := variants[widgetconfig.ShapeOf(t)]; ok {
		return v
	}
	return placeholderVariant{}
}

func baseView(w models.Widget, k Kind) View {
	return View{
		WidgetID: w.ID,
		Type:     w.Config.Type,
		Title:    w.Title,
		Kind:     k,
		Options:  widgetconfig.Resolve(w.Config.Type, w.Config.ChartOptions),
	}
}

// ErrorView is shown in place of a widget whose data could not be fetched.
func ErrorView(w models.Widget, err error) View {
	v := baseView(w, KindError)
	v.Empty = true
	v.Message = "data unavailable: " + err.Error()
	return v
}

type seriesVariant struct{}

func (seriesVariant) Kind() Kind      { return KindSeries }
func (seriesVariant) NeedsData() bool { return true }

func (seriesVariant) Build(w models.Widget, d Data) View {
	v := baseView(w, KindSeries)
	switch {
	case hasPoints(d.Series):
		v.Series = d.Series
	case len(d.Categories) > 0:
		v.Series = []Series{{Name: w.Config.DataBinding.Field, Points: d.Categories}}
	}
	v.Empty = !hasPoints(v.Series)
	return v
}

func hasPoints(ss []Series) bool {
	for _, s := range ss {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}

type scalarVariant struct{}

func (scalarVariant) Kind() Kind      { return KindScalar }
func (scalarVariant) NeedsData() bool { return true }

func (scalarVariant) Build(w models.Widget, d Data) View {
	v := baseView(w, KindScalar)
	value, prev := d.Value, d.Previous
	if value == nil {
		// Use the last two points of the first non-empty series.
		for _, s := range d.Series {
			n := len(s.Points)
			if n == 0 {
				continue
			}
			last := s.Points[n-1].Value
			value = &last
			if n > 1 {
				p := s.Points[n-2].Value
				prev = &p
			}
			break
		}
	}
	if value == nil {
		v.Empty = true
		return v
	}
	sc := &Scalar{Value: *value, Previous: prev, Display: FormatValue(*value, v.Options.ValueFormat)}
	if prev != nil && *prev != 0 {
		delta := (*value - *prev) / *prev * 100
		sc.DeltaPct = &delta
	}
	v.Scalar = sc
	return v
}

type categoricalVariant struct{}

func (categoricalVariant) Kind() Kind      { return KindCategorical }
func (categoricalVariant) NeedsData() bool { return true }

func (categoricalVariant) Build(w models.Widget, d Data) View {
	v := baseView(w, KindCategorical)
	switch {
	case len(d.Categories) > 0:
		v.Categories = d.Categories
	case hasPoints(d.Series):
		// One category per series, valued by its total.
		for _, s := range d.Series {
			total := 0.0
			for _, p := range s.Points {
				total += p.Value
			}
			v.Categories = append(v.Categories, Point{Label: s.Name, Value: total})
		}
	}
	v.Empty = len(v.Categories) == 0
	return v
}

type matrixVariant struct{}

func (matrixVariant) Kind() Kind      { return KindMatrix }
func (matrixVariant) NeedsData() bool { return true }

func (matrixVariant) Build(w models.Widget, d Data) View {
	v := baseView(w, KindMatrix)
	if d.Matrix != nil && len(d.Matrix.Rows) > 0 && len(d.Matrix.Cols) > 0 {
		v.Matrix = d.Matrix
	}
	v.Empty = v.Matrix == nil
	return v
}

type tableVariant struct{}

func (tableVariant) Kind() Kind      { return KindTable }
func (tableVariant) NeedsData() bool { return true }

func (tableVariant) Build(w models.Widget, d Data) View {
	v := baseView(w, KindTable)
	switch {
	case d.Table != nil && len(d.Table.Rows) > 0:
		v.Table = d.Table
	case len(d.Categories) > 0:
		t := &Table{Columns: []string{"label", w.Config.DataBinding.Field}}
		for _, p := range d.Categories {
			t.Rows = append(t.Rows, []string{p.Label, FormatValue(p.Value, v.Options.ValueFormat)})
		}
		v.Table = t
	case hasPoints(d.Series):
		t := &Table{Columns: []string{"series", "period", "value"}}
		for _, s := range d.Series {
			for _, p := range s.Points {
				t.Rows = append(t.Rows, []string{s.Name, p.Label, FormatValue(p.Value, v.Options.ValueFormat)})
			}
		}
		v.Table = t
	}
	v.Empty = v.Table == nil
	return v
}

type placeholderVariant struct{}

func (placeholderVariant) Kind() Kind      { return KindPlaceholder }
func (placeholderVariant) NeedsData() bool { return false }

func (placeholderVariant) Build(w models.Widget, _ Data) View {
	v := baseView(w, KindPlaceholder)
	v.Empty = true
	v.Message = fmt.Sprintf("widget type %q is not supported", w.Config.Type)
	return v
}

// FormatValue renders a number in the given value format.
func FormatValue(x float64, format string) string {
	switch format {
	case models.FormatCurrency:
		return "$" + strconv.FormatFloat(x, 'f', 2, 64)
	case models.FormatPercent:
		return strconv.FormatFloat(x, 'f', 1, 64) + "%"
	default:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
}
