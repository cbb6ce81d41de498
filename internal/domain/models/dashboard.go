// internal/domain/models/dashboard.go
package models

import "time"

// CompactType controls how the layout engine packs widgets.
type CompactType string

// Compaction modes
const (
	CompactVertical   CompactType = "vertical"
	CompactHorizontal CompactType = "horizontal"
	CompactNone       CompactType = "none"
)

// IsValidCompactType checks if c is a known compaction mode.
func IsValidCompactType(c CompactType) bool {
	switch c {
	case CompactVertical, CompactHorizontal, CompactNone:
		return true
	}
	return false
}

// Breakpoint is a named minimum container width.
type Breakpoint struct {
	Name     string `json:"name"`
	MinWidth int    `json:"minWidth"`
}

// DashboardLayout holds grid parameters shared by all widgets of a dashboard.
// Breakpoints are ordered by descending MinWidth; the first is the base
// breakpoint in whose columns widget positions are stored.
type DashboardLayout struct {
	Columns              int            `json:"columns"`
	RowHeight            int            `json:"rowHeight"`
	Gap                  int            `json:"gap"`
	Padding              int            `json:"padding"`
	Breakpoints          []Breakpoint   `json:"breakpoints"`
	ColumnsPerBreakpoint map[string]int `json:"columnsPerBreakpoint"`
	CompactType          CompactType    `json:"compactType"`
}

// DefaultLayout returns the layout used for new dashboards.
func DefaultLayout() DashboardLayout {
	return DashboardLayout{
		Columns:   12,
		RowHeight: 80,
		Gap:       16,
		Padding:   16,
		Breakpoints: []Breakpoint{
			{Name: "lg", MinWidth: 1200},
			{Name: "md", MinWidth: 996},
			{Name: "sm", MinWidth: 768},
			{Name: "xs", MinWidth: 480},
		},
		ColumnsPerBreakpoint: map[string]int{
			"lg": 12,
			"md": 10,
			"sm": 6,
			"xs": 4,
		},
		CompactType: CompactVertical,
	}
}

// Visibility controls who may see a dashboard. Stored only; not enforced here.
type Visibility string

// Visibility values
const (
	VisibilityPrivate      Visibility = "private"
	VisibilityTeam         Visibility = "team"
	VisibilityOrganization Visibility = "organization"
	VisibilityPublic       Visibility = "public"
)

// AllVisibilities returns every visibility value.
func AllVisibilities() []Visibility {
	return []Visibility{VisibilityPrivate, VisibilityTeam, VisibilityOrganization, VisibilityPublic}
}

// IsValidVisibility checks if v is a known visibility.
func IsValidVisibility(v Visibility) bool {
	for _, x := range AllVisibilities() {
		if x == v {
			return true
		}
	}
	return false
}

// TimeRange is the default lookback window for dashboard data.
type TimeRange string

// Time ranges
const (
	TimeRange7D  TimeRange = "7d"
	TimeRange30D TimeRange = "30d"
	TimeRange90D TimeRange = "90d"
	TimeRange12M TimeRange = "12m"
)

// AllTimeRanges returns every supported time range.
func AllTimeRanges() []TimeRange {
	return []TimeRange{TimeRange7D, TimeRange30D, TimeRange90D, TimeRange12M}
}

// IsValidTimeRange checks if r is a supported time range.
func IsValidTimeRange(r TimeRange) bool {
	for _, x := range AllTimeRanges() {
		if x == r {
			return true
		}
	}
	return false
}

// Days returns the number of days covered by the range.
func (r TimeRange) Days() int {
	switch r {
	case TimeRange7D:
		return 7
	case TimeRange90D:
		return 90
	case TimeRange12M:
		return 365
	default:
		return 30
	}
}

// SavedDashboard is the persisted dashboard aggregate.
type SavedDashboard struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	OwnerID          string          `json:"ownerId"`
	Visibility       Visibility      `json:"visibility"`
	IsTemplate       bool            `json:"isTemplate"`
	Widgets          []Widget        `json:"widgets"`
	WidgetCount      int             `json:"widgetCount"` // always len(Widgets)
	Layout           DashboardLayout `json:"layout"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Version          int             `json:"version"`
	DefaultTimeRange TimeRange       `json:"defaultTimeRange"`
	Tags             []string        `json:"tags"`
}

// FindWidget returns the index of the widget with the given id, or -1.
func (d *SavedDashboard) FindWidget(id string) int {
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			return i
		}
	}
	return -1
}
