// Package widgetconfig holds the widget type catalogue: per-type default
// display options, default grid sizes, accepted data shapes, and the
// construction rules for a WidgetConfig.
package widgetconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/stratadash/internal/domain/models"
)

// Shape is the kind of data a widget type consumes.
type Shape string

// Data shapes
const (
	ShapeSeries      Shape = "series"      // time-indexed points, one or more series
	ShapeScalar      Shape = "scalar"      // single value with optional comparison
	ShapeCategorical Shape = "categorical" // labelled values
	ShapeMatrix      Shape = "matrix"      // 2-D cells or weighted links
	ShapeTable       Shape = "table"       // columns and rows
)

// ResolvedOptions is ChartOptions with every value filled in.
type ResolvedOptions struct {
	ShowLegend     bool     `json:"showLegend"`
	ShowGrid       bool     `json:"showGrid"`
	ShowTooltip    bool     `json:"showTooltip"`
	Smooth         bool     `json:"smooth"`
	Stacked        bool     `json:"stacked"`
	Animate        bool     `json:"animate"`
	ShowDataLabels bool     `json:"showDataLabels"`
	Orientation    string   `json:"orientation"`
	ValueFormat    string   `json:"valueFormat"`
	Colors         []string `json:"colors"`
}

// defaultPalette is used when a widget does not set its own colors.
var defaultPalette = []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#06b6d4"}

// typeSpec is one row of the widget catalogue.
type typeSpec struct {
	label    string
	shape    Shape
	w, h     int
	defaults ResolvedOptions
}

func base() ResolvedOptions {
	return ResolvedOptions{
		ShowLegend:  true,
		ShowGrid:    true,
		ShowTooltip: true,
		Animate:     true,
		Orientation: models.OrientationVertical,
		ValueFormat: models.FormatNumber,
	}
}

// genericSpec is used for types missing from the catalogue (e.g. a type
// written by a newer client and read back by this one).
var genericSpec = typeSpec{label: "Unknown widget", shape: ShapeTable, w: 4, h: 3, defaults: base()}

var catalogue = func() map[models.WidgetType]typeSpec {
	m := map[models.WidgetType]typeSpec{}

	metric := base()
	metric.ShowLegend = false
	metric.ShowGrid = false
	metric.ShowTooltip = false
	m[models.WidgetMetricCard] = typeSpec{"Metric card", ShapeScalar, 3, 2, metric}

	line := base()
	line.Smooth = true
	m[models.WidgetLineChart] = typeSpec{"Line chart", ShapeSeries, 6, 4, line}

	area := base()
	area.Smooth = true
	area.Stacked = true
	m[models.WidgetAreaChart] = typeSpec{"Area chart", ShapeSeries, 6, 4, area}

	bar := base()
	m[models.WidgetBarChart] = typeSpec{"Bar chart", ShapeSeries, 6, 4, bar}

	scatter := base()
	scatter.ShowLegend = false
	m[models.WidgetScatterChart] = typeSpec{"Scatter chart", ShapeSeries, 6, 4, scatter}

	pie := base()
	pie.ShowGrid = false
	pie.ShowDataLabels = true
	m[models.WidgetPieChart] = typeSpec{"Pie chart", ShapeCategorical, 4, 4, pie}

	funnel := base()
	funnel.ShowGrid = false
	funnel.ShowLegend = false
	funnel.ShowDataLabels = true
	funnel.Orientation = models.OrientationHorizontal
	funnel.ValueFormat = models.FormatPercent
	m[models.WidgetFunnelChart] = typeSpec{"Funnel chart", ShapeCategorical, 4, 5, funnel}

	radar := base()
	radar.ShowGrid = false
	m[models.WidgetRadarChart] = typeSpec{"Radar chart", ShapeCategorical, 4, 4, radar}

	gauge := base()
	gauge.ShowLegend = false
	gauge.ShowGrid = false
	gauge.ShowDataLabels = true
	gauge.ValueFormat = models.FormatPercent
	m[models.WidgetGaugeChart] = typeSpec{"Gauge", ShapeScalar, 3, 3, gauge}

	heat := base()
	heat.ShowGrid = false
	m[models.WidgetHeatmap] = typeSpec{"Heatmap", ShapeMatrix, 6, 4, heat}

	sankey := base()
	sankey.ShowGrid = false
	sankey.ShowLegend = false
	sankey.Orientation = models.OrientationHorizontal
	m[models.WidgetSankeyChart] = typeSpec{"Sankey chart", ShapeMatrix, 8, 5, sankey}

	table := base()
	table.ShowLegend = false
	table.ShowGrid = false
	table.Animate = false
	m[models.WidgetTable] = typeSpec{"Table", ShapeTable, 6, 5, table}

	return m
}()

func specFor(t models.WidgetType) typeSpec {
	if s, ok := catalogue[t]; ok {
		return s
	}
	return genericSpec
}

// Defaults returns the default options for a widget type. Unknown types get
// generic defaults.
func Defaults(t models.WidgetType) ResolvedOptions {
	d := specFor(t).defaults
	d.Colors = append([]string(nil), defaultPalette...)
	return d
}

// Resolve overlays the user's sparse options onto the type defaults.
// It is total: every type, including unknown ones, yields a full set.
func Resolve(t models.WidgetType, opts models.ChartOptions) ResolvedOptions {
	r := Defaults(t)
	if opts.ShowLegend != nil {
		r.ShowLegend = *opts.ShowLegend
	}
	if opts.ShowGrid != nil {
		r.ShowGrid = *opts.ShowGrid
	}
	if opts.ShowTooltip != nil {
		r.ShowTooltip = *opts.ShowTooltip
	}
	if opts.Smooth != nil {
		r.Smooth = *opts.Smooth
	}
	if opts.Stacked != nil {
		r.Stacked = *opts.Stacked
	}
	if opts.Animate != nil {
		r.Animate = *opts.Animate
	}
	if opts.ShowDataLabels != nil {
		r.ShowDataLabels = *opts.ShowDataLabels
	}
	if opts.Orientation != nil && isOrientation(*opts.Orientation) {
		r.Orientation = *opts.Orientation
	}
	if opts.ValueFormat != nil && isValueFormat(*opts.ValueFormat) {
		r.ValueFormat = *opts.ValueFormat
	}
	if len(opts.Colors) > 0 {
		r.Colors = append([]string(nil), opts.Colors...)
	}
	return r
}

func isOrientation(s string) bool {
	return s == models.OrientationVertical || s == models.OrientationHorizontal
}

func isValueFormat(s string) bool {
	switch s {
	case models.FormatNumber, models.FormatCurrency, models.FormatPercent:
		return true
	}
	return false
}

// DefaultSize returns the grid size (w, h) a new widget of type t gets.
func DefaultSize(t models.WidgetType) (w, h int) {
	s := specFor(t)
	return s.w, s.h
}

// Label returns the display name of widget type t.
func Label(t models.WidgetType) string {
	return specFor(t).label
}

// ShapeOf returns the data shape consumed by widget type t.
func ShapeOf(t models.WidgetType) Shape {
	return specFor(t).shape
}

// ValidationError reports invalid fields of a widget config, keyed by
// JSON path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid widget config: " + strings.Join(parts, "; ")
}

// CheckBinding validates a data binding. Returns field -> message, nil when valid.
func CheckBinding(b models.DataBinding) map[string]string {
	var fields map[string]string
	if !models.IsValidDataSource(b.Source) {
		fields = map[string]string{"dataBinding.source": fmt.Sprintf("unknown data source %q", b.Source)}
	}
	if strings.TrimSpace(b.Field) == "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["dataBinding.field"] = "field is required"
	}
	return fields
}

// NewConfig builds a WidgetConfig for a known widget type. Bindings with a
// source outside the supported set, or with an empty field, are rejected.
func NewConfig(t models.WidgetType, binding models.DataBinding, opts models.ChartOptions) (models.WidgetConfig, error) {
	fields := CheckBinding(binding)
	if !models.IsValidWidgetType(t) {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["type"] = fmt.Sprintf("unknown widget type %q", t)
	}
	if opts.Orientation != nil && !isOrientation(*opts.Orientation) {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["chartOptions.orientation"] = "must be vertical or horizontal"
	}
	if opts.ValueFormat != nil && !isValueFormat(*opts.ValueFormat) {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["chartOptions.valueFormat"] = "must be number, currency, or percent"
	}
	if fields != nil {
		return models.WidgetConfig{}, &ValidationError{Fields: fields}
	}
	binding.Field = strings.TrimSpace(binding.Field)
	return models.WidgetConfig{Type: t, DataBinding: binding, ChartOptions: opts}, nil
}

// TypeInfo describes one widget type for catalogue listings.
type TypeInfo struct {
	Type     models.WidgetType `json:"type"`
	Label    string            `json:"label"`
	Shape    Shape             `json:"shape"`
	Width    int               `json:"defaultWidth"`
	Height   int               `json:"defaultHeight"`
	Defaults ResolvedOptions   `json:"defaultOptions"`
}

// Catalog lists every supported widget type in display order.
func Catalog() []TypeInfo {
	types := models.AllWidgetTypes()
	out := make([]TypeInfo, len(types))
	for i, t := range types {
		s := specFor(t)
		out[i] = TypeInfo{
			Type:     t,
			Label:    s.label,
			Shape:    s.shape,
			Width:    s.w,
			Height:   s.h,
			Defaults: Defaults(t),
		}
	}
	return out
}
