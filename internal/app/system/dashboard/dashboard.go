// Package dashboard builds and versions SavedDashboard aggregates.
//
// Create and Update are pure: the only outside inputs are the injected
// Clock and IDGenerator, so callers and tests control time and identity.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/stratadash/internal/app/system/normalize"
	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/google/uuid"
)

// MaxNameLength is the longest accepted dashboard name, in characters.
const MaxNameLength = 200

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T. Advance moves it forward.
type FixedClock struct {
	mu sync.Mutex
	T  time.Time
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.T
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.T = c.T.Add(d)
	c.mu.Unlock()
}

// IDGenerator produces new dashboard and widget identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceIDs issues Prefix-1, Prefix-2, ... Useful in tests.
type SequenceIDs struct {
	mu     sync.Mutex
	Prefix string
	n      int
}

// NewID implements IDGenerator.
func (s *SequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.Prefix, s.n)
}

// Input carries the user-editable fields of a dashboard.
type Input struct {
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	OwnerID          string                 `json:"ownerId"`
	Visibility       models.Visibility      `json:"visibility"`
	IsTemplate       bool                   `json:"isTemplate"`
	Widgets          []models.Widget        `json:"widgets"`
	Layout           models.DashboardLayout `json:"layout"`
	DefaultTimeRange models.TimeRange       `json:"defaultTimeRange"`
	Tags             []string               `json:"tags"`
}

// InputFrom copies the editable fields of d into an Input.
func InputFrom(d models.SavedDashboard) Input {
	return Input{
		Name:             d.Name,
		Description:      d.Description,
		OwnerID:          d.OwnerID,
		Visibility:       d.Visibility,
		IsTemplate:       d.IsTemplate,
		Widgets:          cloneWidgets(d.Widgets),
		Layout:           cloneLayout(d.Layout),
		DefaultTimeRange: d.DefaultTimeRange,
		Tags:             append([]string{}, d.Tags...),
	}
}

// CloneInput returns a deep copy of in.
func CloneInput(in Input) Input {
	out := in
	if in.Widgets != nil {
		out.Widgets = cloneWidgets(in.Widgets)
	}
	out.Layout = cloneLayout(in.Layout)
	if in.Tags != nil {
		out.Tags = append([]string{}, in.Tags...)
	}
	return out
}

// ValidationError reports invalid input fields, keyed by JSON path.
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
	return "invalid dashboard: " + strings.Join(parts, "; ")
}

// Validate checks the input. Widget types outside the catalogue are
// accepted here; they render as placeholders.
func Validate(in Input) error {
	fields := map[string]string{}

	name := normalize.Name(in.Name)
	if name == "" {
		fields["name"] = "name is required"
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		fields["name"] = fmt.Sprintf("name must be at most %d characters", MaxNameLength)
	}
	if in.Visibility != "" && !models.IsValidVisibility(in.Visibility) {
		fields["visibility"] = fmt.Sprintf("unknown visibility %q", in.Visibility)
	}
	if in.DefaultTimeRange != "" && !models.IsValidTimeRange(in.DefaultTimeRange) {
		fields["defaultTimeRange"] = fmt.Sprintf("unknown time range %q", in.DefaultTimeRange)
	}

	seen := make(map[string]bool, len(in.Widgets))
	for i, w := range in.Widgets {
		prefix := fmt.Sprintf("widgets[%d]", i)
		if strings.TrimSpace(w.ID) == "" {
			fields[prefix+".id"] = "id is required"
		} else if seen[w.ID] {
			fields[prefix+".id"] = fmt.Sprintf("duplicate widget id %q", w.ID)
		}
		seen[w.ID] = true
		for k, msg := range widgetconfig.CheckBinding(w.Config.DataBinding) {
			fields[prefix+".config."+k] = msg
		}
		if w.Position.W < 1 || w.Position.H < 1 {
			fields[prefix+".position"] = "width and height must be at least 1"
		}
	}

	l := in.Layout
	if l.CompactType != "" && !models.IsValidCompactType(l.CompactType) {
		fields["layout.compactType"] = fmt.Sprintf("unknown compact type %q", l.CompactType)
	}
	for _, bp := range l.Breakpoints {
		if n, ok := l.ColumnsPerBreakpoint[bp.Name]; !ok || n < 1 {
			fields["layout.columnsPerBreakpoint."+bp.Name] = "missing column count for breakpoint"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// withDefaults fills defaults for empty optional fields.
func withDefaults(in Input) Input {
	in.Name = normalize.Name(in.Name)
	in.Description = normalize.Name(in.Description)
	in.Tags = normalize.Tags(in.Tags)
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPrivate
	}
	if in.DefaultTimeRange == "" {
		in.DefaultTimeRange = models.TimeRange30D
	}
	in.Layout = layoutDefaults(in.Layout)
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if in.Widgets == nil {
		in.Widgets = []models.Widget{}
	}
	return in
}

// layoutDefaults fills the unset parts of l. A zero layout becomes the
// default one; otherwise only missing fields are filled and everything the
// caller set is kept.
func layoutDefaults(l models.DashboardLayout) models.DashboardLayout {
	def := models.DefaultLayout()
	if l.Columns == 0 && l.RowHeight == 0 && len(l.Breakpoints) == 0 && len(l.ColumnsPerBreakpoint) == 0 {
		if l.CompactType != "" {
			def.CompactType = l.CompactType
		}
		return def
	}
	if l.Columns <= 0 {
		l.Columns = def.Columns
	}
	if l.RowHeight <= 0 {
		l.RowHeight = def.RowHeight
	}
	if len(l.Breakpoints) == 0 {
		l.Breakpoints = def.Breakpoints
	}
	if len(l.ColumnsPerBreakpoint) == 0 {
		l.ColumnsPerBreakpoint = def.ColumnsPerBreakpoint
	} else {
		cpb := make(map[string]int, len(l.ColumnsPerBreakpoint)+len(l.Breakpoints))
		for k, v := range l.ColumnsPerBreakpoint {
			cpb[k] = v
		}
		for _, bp := range l.Breakpoints {
			if _, ok := cpb[bp.Name]; !ok {
				if n, ok := def.ColumnsPerBreakpoint[bp.Name]; ok {
					cpb[bp.Name] = n
				} else {
					cpb[bp.Name] = l.Columns
				}
			}
		}
		l.ColumnsPerBreakpoint = cpb
	}
	if l.CompactType == "" {
		l.CompactType = models.CompactVertical
	}
	return l
}

// Create builds a new dashboard at version 1.
func Create(in Input, clock Clock, ids IDGenerator) (models.SavedDashboard, error) {
	if err := Validate(in); err != nil {
		return models.SavedDashboard{}, err
	}
	in = withDefaults(in)
	now := clock.Now()
	widgets := cloneWidgets(in.Widgets)
	return models.SavedDashboard{
		ID:               ids.NewID(),
		Name:             in.Name,
		Description:      in.Description,
		OwnerID:          in.OwnerID,
		Visibility:       in.Visibility,
		IsTemplate:       in.IsTemplate,
		Widgets:          widgets,
		WidgetCount:      len(widgets),
		Layout:           cloneLayout(in.Layout),
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
		DefaultTimeRange: in.DefaultTimeRange,
		Tags:             append([]string{}, in.Tags...),
	}, nil
}

// Update replaces every editable field of existing with in. ID, CreatedAt
// and OwnerID are kept; Version is incremented and UpdatedAt refreshed.
func Update(existing models.SavedDashboard, in Input, clock Clock) (models.SavedDashboard, error) {
	if err := Validate(in); err != nil {
		return models.SavedDashboard{}, err
	}
	in = withDefaults(in)
	widgets := cloneWidgets(in.Widgets)
	return models.SavedDashboard{
		ID:               existing.ID,
		Name:             in.Name,
		Description:      in.Description,
		OwnerID:          existing.OwnerID,
		Visibility:       in.Visibility,
		IsTemplate:       in.IsTemplate,
		Widgets:          widgets,
		WidgetCount:      len(widgets),
		Layout:           cloneLayout(in.Layout),
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        clock.Now(),
		Version:          existing.Version + 1,
		DefaultTimeRange: in.DefaultTimeRange,
		Tags:             append([]string{}, in.Tags...),
	}, nil
}

// Clone returns a deep copy of d.
func Clone(d models.SavedDashboard) models.SavedDashboard {
	out := d
	out.Widgets = cloneWidgets(d.Widgets)
	out.Layout = cloneLayout(d.Layout)
	out.Tags = append([]string{}, d.Tags...)
	return out
}

func cloneWidgets(in []models.Widget) []models.Widget {
	out := make([]models.Widget, len(in))
	for i, w := range in {
		out[i] = w
		out[i].Config.ChartOptions = cloneOptions(w.Config.ChartOptions)
	}
	return out
}

func cloneOptions(o models.ChartOptions) models.ChartOptions {
	out := models.ChartOptions{}
	copyBool := func(p *bool) *bool {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	copyString := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	out.ShowLegend = copyBool(o.ShowLegend)
	out.ShowGrid = copyBool(o.ShowGrid)
	out.ShowTooltip = copyBool(o.ShowTooltip)
	out.Smooth = copyBool(o.Smooth)
	out.Stacked = copyBool(o.Stacked)
	out.Animate = copyBool(o.Animate)
	out.ShowDataLabels = copyBool(o.ShowDataLabels)
	out.Orientation = copyString(o.Orientation)
	out.ValueFormat = copyString(o.ValueFormat)
	if o.Colors != nil {
		out.Colors = append([]string{}, o.Colors...)
	}
	return out
}

func cloneLayout(l models.DashboardLayout) models.DashboardLayout {
	out := l
	if l.Breakpoints != nil {
		out.Breakpoints = append([]models.Breakpoint{}, l.Breakpoints...)
	}
	if l.ColumnsPerBreakpoint != nil {
		out.ColumnsPerBreakpoint = make(map[string]int, len(l.ColumnsPerBreakpoint))
		for k, v := range l.ColumnsPerBreakpoint {
			out.ColumnsPerBreakpoint[k] = v
		}
	}
	return out
}
