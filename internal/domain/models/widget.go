// internal/domain/models/widget.go
package models

// WidgetType identifies how a widget visualizes its data.
type WidgetType string

// Widget types
const (
	WidgetMetricCard   WidgetType = "metric-card"
	WidgetLineChart    WidgetType = "line-chart"
	WidgetBarChart     WidgetType = "bar-chart"
	WidgetPieChart     WidgetType = "pie-chart"
	WidgetAreaChart    WidgetType = "area-chart"
	WidgetFunnelChart  WidgetType = "funnel-chart"
	WidgetGaugeChart   WidgetType = "gauge-chart"
	WidgetHeatmap      WidgetType = "heatmap"
	WidgetRadarChart   WidgetType = "radar-chart"
	WidgetSankeyChart  WidgetType = "sankey-chart"
	WidgetScatterChart WidgetType = "scatter-chart"
	WidgetTable        WidgetType = "table"
)

// AllWidgetTypes returns every supported widget type in catalogue order.
func AllWidgetTypes() []WidgetType {
	return []WidgetType{
		WidgetMetricCard,
		WidgetLineChart,
		WidgetBarChart,
		WidgetPieChart,
		WidgetAreaChart,
		WidgetFunnelChart,
		WidgetGaugeChart,
		WidgetHeatmap,
		WidgetRadarChart,
		WidgetSankeyChart,
		WidgetScatterChart,
		WidgetTable,
	}
}

// IsValidWidgetType checks if t is one of the supported widget types.
func IsValidWidgetType(t WidgetType) bool {
	for _, v := range AllWidgetTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// DataSource names an analytics domain a widget can be bound to.
type DataSource string

// Data sources
const (
	SourceTraffic       DataSource = "traffic"
	SourceSEO           DataSource = "seo"
	SourceConversions   DataSource = "conversions"
	SourceRevenue       DataSource = "revenue"
	SourceSubscriptions DataSource = "subscriptions"
	SourcePayments      DataSource = "payments"
	SourceUnitEconomics DataSource = "unitEconomics"
	SourceDemographics  DataSource = "demographics"
	SourceSegmentation  DataSource = "segmentation"
	SourceCampaigns     DataSource = "campaigns"
	SourcePredictions   DataSource = "predictions"
)

// AllDataSources returns every supported data source.
func AllDataSources() []DataSource {
	return []DataSource{
		SourceTraffic,
		SourceSEO,
		SourceConversions,
		SourceRevenue,
		SourceSubscriptions,
		SourcePayments,
		SourceUnitEconomics,
		SourceDemographics,
		SourceSegmentation,
		SourceCampaigns,
		SourcePredictions,
	}
}

// IsValidDataSource checks if s is one of the supported data sources.
func IsValidDataSource(s DataSource) bool {
	for _, v := range AllDataSources() {
		if v == s {
			return true
		}
	}
	return false
}

// DataBinding selects a field within a data source.
// Field is an opaque key interpreted by the data-fetch layer.
type DataBinding struct {
	Source DataSource `json:"source"`
	Field  string     `json:"field"`
}

// Orientation values for bar-like charts.
const (
	OrientationVertical   = "vertical"
	OrientationHorizontal = "horizontal"
)

// Value formats for metric display.
const (
	FormatNumber   = "number"
	FormatCurrency = "currency"
	FormatPercent  = "percent"
)

// ChartOptions is a sparse set of display options. Every field is optional;
// a nil field means "use the widget type's default".
type ChartOptions struct {
	ShowLegend     *bool    `json:"showLegend,omitempty"`
	ShowGrid       *bool    `json:"showGrid,omitempty"`
	ShowTooltip    *bool    `json:"showTooltip,omitempty"`
	Smooth         *bool    `json:"smooth,omitempty"`
	Stacked        *bool    `json:"stacked,omitempty"`
	Animate        *bool    `json:"animate,omitempty"`
	ShowDataLabels *bool    `json:"showDataLabels,omitempty"`
	Orientation    *string  `json:"orientation,omitempty"`
	ValueFormat    *string  `json:"valueFormat,omitempty"`
	Colors         []string `json:"colors,omitempty"`
}

// WidgetConfig describes what a widget shows and how.
type WidgetConfig struct {
	Type         WidgetType   `json:"type"`
	DataBinding  DataBinding  `json:"dataBinding"`
	ChartOptions ChartOptions `json:"chartOptions"`
}

// Position is a rectangle on the layout grid, in grid units.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Widget is one placed, configured tile on a dashboard.
// Position is expressed in the base (widest) breakpoint's columns.
type Widget struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Config   WidgetConfig `json:"config"`
	Position Position     `json:"position"`
}

// BoolPtr returns a pointer to b. Handy for building ChartOptions.
func BoolPtr(b bool) *bool {
	return &b
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
